package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/memory"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.NewStore()
	mgr := session.NewManager(func(ctx context.Context, id string) (*mdxvision.Engine, error) {
		return mdxvision.New(ctx, mdxvision.WithSessionID(id), mdxvision.WithMacroStore(store))
	})
	t.Cleanup(mgr.Close)
	return NewServer(mgr, nil)
}

func TestInterpretCommand(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleInterpret(context.Background(), mcp.CallToolRequest{}, InterpretArgs{
		Text: "Hey MDX, order a cbc then show labs",
	})
	require.NoError(t, err)

	assert.True(t, res.Recognized)
	assert.Equal(t, "order a cbc then show labs", res.NormalizedText)
	require.Len(t, res.Intents, 2)
	assert.Equal(t, domain.KindOrder, res.Intents[0].Kind)
	assert.Equal(t, "cbc", res.Intents[0].Params["details"])
	assert.Equal(t, domain.KindShowSection, res.Intents[1].Kind)
}

func TestInterpretCommand_Errors(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleInterpret(context.Background(), mcp.CallToolRequest{}, InterpretArgs{Text: ""})
	assert.Error(t, err)

	_, err = s.handleInterpret(context.Background(), mcp.CallToolRequest{}, InterpretArgs{Text: "show \xff"})
	assert.ErrorContains(t, err, "input rejected")
}

func TestInterpretCommand_UsesSessionMacros(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	eng, err := s.sessions.Get(ctx, "glasses-3")
	require.NoError(t, err)
	require.NoError(t, eng.Macros().Register(ctx, "discharge prep", []domain.Intent{domain.GenerateNote{}}))

	res, err := s.handleInterpret(ctx, mcp.CallToolRequest{}, InterpretArgs{Text: "discharge prep", SessionID: "glasses-3"})
	require.NoError(t, err)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, domain.KindGenerateNote, res.Intents[0].Kind)

	list, err := s.handleListMacros(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "glasses-3"})
	require.NoError(t, err)
	require.Len(t, list.Macros, 1)
	assert.Equal(t, "discharge prep", list.Macros[0].Trigger)

	empty, err := s.handleListMacros(ctx, mcp.CallToolRequest{}, SessionArgs{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Macros)
	assert.Len(t, empty.Macros, 1, "sessions of the same user share the store")
}

func TestNormalizeText(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleNormalize(context.Background(), mcp.CallToolRequest{}, NormalizeArgs{Text: "ok mdx switch to sir ner"})
	require.NoError(t, err)
	assert.Equal(t, "switch to cerner", res.Text)
	assert.True(t, res.WakeDetected)
	assert.Equal(t, []string{"sir ner->cerner"}, res.Corrections)
}
