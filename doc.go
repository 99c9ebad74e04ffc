/*
Package mdxvision is the multimodal command engine of the MDX Vision
head-mounted clinical assistant.

It turns finalized speech transcripts into ordered clinical intents and runs
them against caller-supplied actions. It also recognizes head gestures and
keeps track of the overlay's display state.

# Pipeline

	transcript -> normalize -> parse (macros expanded) -> execute
	motion samples -> gesture recognizer -> display state

Every stage is a package of its own (pkg/normalize, pkg/parser, pkg/macro,
pkg/executor, pkg/gesture, pkg/display). The Engine wires them for one device
session, so the integrating application only deals with transcripts, samples
and bindings.

# Usage

	eng, err := mdxvision.New(ctx, mdxvision.WithRequireWakePhrase(true))
	if err != nil {
		log.Fatal(err)
	}

	cmd := eng.Interpret(ctx, "Hey MDX, load patient 12724066 then show vitals", "en")
	// cmd.Intents: LoadPatient("12724066"), ShowSection(vitals)

	_, err = eng.Execute(ctx, cmd, executor.Bindings{
		LoadPatient: func(ctx context.Context, i domain.LoadPatient) error { return ehr.Load(ctx, i.Identifier) },
		ShowSection: func(ctx context.Context, i domain.ShowSection) error { return hud.Render(ctx, i.Section) },
	})

Unrecognized speech never fails interpretation: it becomes an Unknown intent
and the caller decides what to do with it. Persistence of user macros is
pluggable through ports.MacroStore (memory, file and redis adapters ship with
the module).
*/
package mdxvision
