package main

import (
	"testing"
)

func TestRootFlagsReachServe(t *testing.T) {
	root := newRootCmd()

	serve, args, err := root.Find([]string{"serve"})
	if err != nil {
		t.Fatalf("find serve: %v", err)
	}
	if serve.Name() != "serve" || len(args) != 0 {
		t.Fatalf("unexpected command %q args %v", serve.Name(), args)
	}

	if err := root.ParseFlags([]string{"--source", "http", "--page-size", "12"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if got, _ := root.PersistentFlags().GetString("source"); got != "http" {
		t.Fatalf("source = %q, want http", got)
	}
	if got, _ := root.PersistentFlags().GetInt("page-size"); got != 12 {
		t.Fatalf("page-size = %d, want 12", got)
	}
	if serve.Flags().Lookup("listen") == nil {
		t.Fatalf("serve is missing --listen")
	}
	if serve.InheritedFlags().Lookup("config") == nil {
		t.Fatalf("serve does not inherit --config")
	}
}

func TestRootRejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"extra"})
	root.SetOut(testWriter{t})
	root.SetErr(testWriter{t})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected positional args to be rejected")
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
