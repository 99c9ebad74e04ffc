package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// serve runs a bridge over the scripted input and returns the decoded events.
func serve(t *testing.T, input string, opts ...Option) []Event {
	t.Helper()
	var out bytes.Buffer
	b := New(strings.NewReader(input), &out, opts...)

	eng, err := mdxvision.New(context.Background(), mdxvision.WithLifecycleHooks(b.Hooks()))
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	require.NoError(t, b.Serve(context.Background(), eng))

	var events []Event
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), sc.Text())
		events = append(events, ev)
	}
	return events
}

func types(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestBridge_HostPerformsIntents(t *testing.T) {
	events := serve(t, `{"type":"transcript","text":"Hey MDX, load patient 7 then show vitals"}
{"type":"result"}
{"type":"result","error":"ehr offline"}
`)

	require.Equal(t, []string{TypeCommand, TypeIntent, TypeDisplay, TypeIntent, TypeReport}, types(events))

	cmd := events[0].Command
	require.NotNil(t, cmd)
	assert.Equal(t, "load patient 7 then show vitals", cmd.NormalizedText)

	assert.Equal(t, 1, events[1].Step)
	assert.Equal(t, domain.KindLoadPatient, events[1].Intent.Kind)
	assert.Equal(t, "7", events[1].Intent.Params["identifier"])

	assert.Equal(t, domain.DisplayCompact, events[2].Display.To)

	assert.Equal(t, 2, events[3].Step)
	assert.Equal(t, domain.KindShowSection, events[3].Intent.Kind)

	report := events[4].Report
	require.NotNil(t, report)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, domain.StepSucceeded, report.Steps[0].Status)
	assert.Equal(t, domain.StepFailed, report.Steps[1].Status)
	assert.Contains(t, events[4].Error, "ehr offline")
}

func TestBridge_PlainTextAndIgnoredInput(t *testing.T) {
	events := serve(t, "show worklist\n{\"type\":\"result\"}\n\nhey mdx\n")

	require.Equal(t, []string{TypeCommand, TypeIntent, TypeDisplay, TypeReport, TypeCommand}, types(events))
	assert.Equal(t, domain.KindShowWorklist, events[1].Intent.Kind)
	assert.Empty(t, events[3].Error)
	assert.Empty(t, events[4].Command.Intents, "a bare wake phrase yields no intents and nothing runs")
}

func TestBridge_GesturesAndDisplayActions(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	at := func(ms int) string {
		data, _ := json.Marshal(epoch.Add(time.Duration(ms) * time.Millisecond))
		return string(data)
	}
	sample := func(ms int, pitch float64) string {
		return fmt.Sprintf(`{"type":"sample","sample":{"at":%s,"pitch_rate":%v}}`, at(ms), pitch)
	}
	finish := func(ms int) string { return fmt.Sprintf(`{"type":"finish","at":%s}`, at(ms)) }

	input := strings.Join([]string{
		sample(0, 2.5), sample(100, -2.5), finish(150),
		sample(700, 2.5), sample(800, -2.5), finish(850),
		`{"type":"display","action":"expand"}`,
		`{"type":"display","action":"levitate"}`,
	}, "\n")

	events := serve(t, input)
	require.Equal(t, []string{TypeGesture, TypeGesture, TypeGesture, TypeDisplay, TypeDisplay, TypeError}, types(events))
	assert.Equal(t, domain.GestureDoubleNod, events[2].Gesture.Kind)
	assert.Equal(t, domain.DisplayCompact, events[3].Display.To)
	assert.Equal(t, domain.DisplayExpanded, events[4].Display.To)
	assert.Contains(t, events[5].Error, "levitate")
}

func TestBridge_ProtocolErrors(t *testing.T) {
	events := serve(t, `{"type":"result"}
{"type":"teleport"}
{"type":"sample"}
{"type":
{"type":"transcript","text":"show \xff"}
`)
	require.Equal(t, []string{TypeError, TypeError, TypeError, TypeError, TypeError}, types(events))
	assert.Contains(t, events[0].Error, "no intent is pending")
	assert.Contains(t, events[1].Error, "teleport")
	assert.Contains(t, events[3].Error, "invalid message")
}

func TestBridge_BusyAndClosedStream(t *testing.T) {
	events := serve(t, `{"type":"transcript","text":"generate note"}
{"type":"transcript","text":"show labs"}
`)
	require.Equal(t, []string{TypeCommand, TypeIntent, TypeError, TypeReport}, types(events))
	assert.Contains(t, events[2].Error, "busy")
	assert.Contains(t, events[3].Error, ErrClosed.Error())
}

func TestBridge_TranscriptLimit(t *testing.T) {
	events := serve(t, `{"type":"transcript","text":"show vitals please"}`, WithMaxTranscript(4))
	require.Equal(t, []string{TypeError}, types(events))
}
