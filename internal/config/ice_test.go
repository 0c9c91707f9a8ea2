package config

import "testing"

func TestLoad_ICEServersFromConvenienceEnv(t *testing.T) {
	cfg, err := load(lookupFromMap(map[string]string{
		envStunURLs:       "stun:stun.l.google.com:19302, stun:stun1.l.google.com:19302",
		envTurnURLs:       "turn:turn.example.com:3478",
		envTurnUsername:   "relay",
		envTurnCredential: "hunter2",
	}), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.ICEServers) != 2 {
		t.Fatalf("ICEServers=%v, want 2 entries", cfg.ICEServers)
	}
	if len(cfg.ICEServers[0].URLs) != 2 || cfg.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("stun entry=%v", cfg.ICEServers[0])
	}
	if cfg.ICEServers[1].Username != "relay" {
		t.Fatalf("turn entry=%v", cfg.ICEServers[1])
	}
	cred, ok := cfg.ICEServers[1].Credential.(string)
	if !ok || cred != "hunter2" {
		t.Fatalf("turn credential=%v", cfg.ICEServers[1].Credential)
	}
}

func TestLoad_TURNWithoutCredentialsFails(t *testing.T) {
	_, err := load(lookupFromMap(map[string]string{
		envTurnURLs: "turn:turn.example.com:3478",
	}), nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseICEServersJSON(t *testing.T) {
	raw := `[
		{"urls": "stun:stun.example.com"},
		{"urls": ["turn:turn.example.com:3478"], "username": "u", "credential": "c"}
	]`

	servers, err := ParseICEServersJSON(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("servers=%v, want 2 entries", servers)
	}
	if servers[0].URLs[0] != "stun:stun.example.com" {
		t.Fatalf("servers[0]=%v", servers[0])
	}
}

func TestParseICEServersJSON_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "stun:stun.example.com"},
		{"missing urls", `[{"username": "u"}]`},
		{"bad scheme", `[{"urls": "https://example.com"}]`},
		{"turn without creds", `[{"urls": "turn:turn.example.com"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseICEServersJSON(tc.raw); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
