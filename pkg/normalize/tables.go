package normalize

// DefaultWakePhrases are the accepted wake phrases, including letter-spelled forms
// produced when the recognizer hears "MDX" as separate letters.
var DefaultWakePhrases = []string{
	"hey mdx",
	"ok mdx",
	"okay mdx",
	"hey m d x",
	"hey em dee ex",
}

// AssistantName is the spoken name of the AI assistant.
const AssistantName = "minerva"

// DefaultCorrections fixes commonly misheard tokens: EHR system names and the
// assistant name. Targets must not overlap (see ValidateCorrections).
var DefaultCorrections = []Correction{
	{From: "sir ner", To: "cerner"},
	{From: "sern er", To: "cerner"},
	{From: "cernor", To: "cerner"},
	{From: "epick", To: "epic"},
	{From: "eh pick", To: "epic"},
	{From: "a thena", To: "athena"},
	{From: "all scripts", To: "allscripts"},
	{From: "medi tech", To: "meditech"},
	{From: "manerva", To: "minerva"},
	{From: "min erva", To: "minerva"},
	{From: "minerba", To: "minerva"},
	{From: "vital science", To: "vital signs"},
	{From: "work list", To: "worklist"},
}

// DefaultLanguages holds the translation tables keyed by ISO-639-1 code.
// Phrase tables are ordered longest/most specific first; the first match wins.
var DefaultLanguages = map[string]LanguageTable{
	"es": {
		Phrases: []Translation{
			{"mostrar resultados de laboratorio", "show labs"},
			{"mostrar signos vitales", "show vitals"},
			{"mostrar plan de cuidados", "show care plans"},
			{"mostrar alergias", "show allergies"},
			{"mostrar medicamentos", "show medications"},
			{"mostrar medicación", "show medications"},
			{"mostrar laboratorios", "show labs"},
			{"mostrar procedimientos", "show procedures"},
			{"mostrar condiciones", "show conditions"},
			{"mostrar diagnósticos", "show conditions"},
			{"mostrar notas", "show notes"},
			{"lista de pacientes", "show worklist"},
			{"cargar al paciente", "load patient"},
			{"cargar paciente", "load patient"},
			{"abrir paciente", "load patient"},
			{"registrar paciente", "check in patient"},
			{"iniciar grabación", "start recording"},
			{"detener grabación", "stop recording"},
			{"generar nota", "generate note"},
			{"cambiar a", "switch to"},
			{"ordenar", "order"},
			{"pedir", "order"},
		},
		Aliases: []Translation{
			{"vitales", "show vitals"},
			{"alergias", "show allergies"},
			{"medicamentos", "show medications"},
			{"medicación", "show medications"},
			{"laboratorios", "show labs"},
			{"procedimientos", "show procedures"},
			{"diagnósticos", "show conditions"},
			{"notas", "show notes"},
			{"pacientes", "show worklist"},
			{"ayuda", "help"},
		},
	},
	"fr": {
		Phrases: []Translation{
			{"afficher les signes vitaux", "show vitals"},
			{"afficher les allergies", "show allergies"},
			{"afficher les médicaments", "show medications"},
			{"afficher les analyses", "show labs"},
			{"afficher les résultats", "show labs"},
			{"afficher les procédures", "show procedures"},
			{"afficher les antécédents", "show conditions"},
			{"afficher le plan de soins", "show care plans"},
			{"afficher les notes", "show notes"},
			{"liste des patients", "show worklist"},
			{"charger le patient", "load patient"},
			{"ouvrir le patient", "load patient"},
			{"enregistrer l'arrivée du patient", "check in patient"},
			{"commencer l'enregistrement", "start recording"},
			{"arrêter l'enregistrement", "stop recording"},
			{"générer une note", "generate note"},
			{"passer à", "switch to"},
			{"commander", "order"},
		},
		Aliases: []Translation{
			{"signes vitaux", "show vitals"},
			{"allergies", "show allergies"},
			{"médicaments", "show medications"},
			{"analyses", "show labs"},
			{"antécédents", "show conditions"},
			{"notes", "show notes"},
			{"aide", "help"},
		},
	},
	"de": {
		Phrases: []Translation{
			{"vitalwerte anzeigen", "show vitals"},
			{"allergien anzeigen", "show allergies"},
			{"medikamente anzeigen", "show medications"},
			{"laborwerte anzeigen", "show labs"},
			{"eingriffe anzeigen", "show procedures"},
			{"diagnosen anzeigen", "show conditions"},
			{"pflegepläne anzeigen", "show care plans"},
			{"notizen anzeigen", "show notes"},
			{"patientenliste", "show worklist"},
			{"patient laden", "load patient"},
			{"patient öffnen", "load patient"},
			{"patient aufnehmen", "check in patient"},
			{"aufnahme starten", "start recording"},
			{"aufnahme stoppen", "stop recording"},
			{"notiz erstellen", "generate note"},
			{"arztbrief erstellen", "generate note"},
			{"wechseln zu", "switch to"},
			{"anordnen", "order"},
		},
		Aliases: []Translation{
			{"vitalwerte", "show vitals"},
			{"allergien", "show allergies"},
			{"medikamente", "show medications"},
			{"laborwerte", "show labs"},
			{"befunde", "show labs"},
			{"pflegepläne", "show care plans"},
			{"notizen", "show notes"},
			{"hilfe", "help"},
		},
	},
	"pt": {
		Phrases: []Translation{
			{"mostrar sinais vitais", "show vitals"},
			{"mostrar plano de cuidados", "show care plans"},
			{"mostrar alergias", "show allergies"},
			{"mostrar medicamentos", "show medications"},
			{"mostrar exames", "show labs"},
			{"mostrar procedimentos", "show procedures"},
			{"mostrar condições", "show conditions"},
			{"mostrar notas", "show notes"},
			{"lista de pacientes", "show worklist"},
			{"carregar paciente", "load patient"},
			{"abrir paciente", "load patient"},
			{"iniciar gravação", "start recording"},
			{"parar gravação", "stop recording"},
			{"gerar nota", "generate note"},
			{"mudar para", "switch to"},
			{"pedir", "order"},
		},
		Aliases: []Translation{
			{"sinais vitais", "show vitals"},
			{"alergias", "show allergies"},
			{"medicamentos", "show medications"},
			{"exames", "show labs"},
			{"condições", "show conditions"},
			{"notas", "show notes"},
			{"ajuda", "help"},
		},
	},
}
