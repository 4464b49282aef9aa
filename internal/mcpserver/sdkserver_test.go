package mcpserver

import "testing"

func TestNewSDKServer_RegistersEveryTool(t *testing.T) {
	d := newTestDispatcher(t)
	s := newSDKServer(d)
	if s == nil {
		t.Fatal("newSDKServer returned nil")
	}
}

func TestToolDescription_MatchesRegistry(t *testing.T) {
	for _, tool := range toolRegistry {
		if toolDescription(tool.Name) != tool.Description {
			t.Errorf("toolDescription(%q) diverged from toolRegistry", tool.Name)
		}
	}
	if toolDescription("does-not-exist") != "" {
		t.Error("toolDescription should return empty string for unknown tool names")
	}
}
