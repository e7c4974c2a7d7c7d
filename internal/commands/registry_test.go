package commands

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "inbox", Aliases: []string{"i", "ls"}})
	r.Register(&Command{Name: "delete", Aliases: []string{"d"}})

	if cmd, ok := r.Get("inbox"); !ok || cmd.Name != "inbox" {
		t.Error("lookup by name failed")
	}
	if cmd, ok := r.Get("i"); !ok || cmd.Name != "inbox" {
		t.Error("lookup by alias failed")
	}
	if cmd, ok := r.Get("ls"); !ok || cmd.Name != "inbox" {
		t.Error("lookup by second alias failed")
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("unknown command should not resolve")
	}

	cmds := r.Commands()
	if len(cmds) != 2 || cmds[0].Name != "delete" || cmds[1].Name != "inbox" {
		t.Errorf("Commands() not sorted by name: %v", []string{cmds[0].Name, cmds[1].Name})
	}
}

func TestResolveFolder(t *testing.T) {
	names := []string{"INBOX", "INBOX/Receipts", "[Gmail]/Sent Mail"}
	displays := []string{"INBOX", "Receipts", "Sent Mail"}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"INBOX", "INBOX", true},
		{"Receipts", "INBOX/Receipts", true},
		{"receipts", "INBOX/Receipts", true},
		{"sent mail", "[Gmail]/Sent Mail", true},
		{"Trash", "", false},
	}

	for _, tt := range tests {
		got, ok := resolveFolder(tt.in, names, displays)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolveFolder(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
