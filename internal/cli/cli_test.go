package cli

import (
	"reflect"
	"testing"

	"cronsync/internal/config"
)

func TestDeclaredUsers(t *testing.T) {
	t.Parallel()
	a := &app{cfg: &config.Config{
		Agent: config.AgentConfig{DefaultUser: "root", PurgeUsers: []string{"olduser"}},
		Jobs: []config.JobConfig{
			{Name: "backup", User: "alice"},
			{Name: "rotate"},
			{Name: "report", User: "alice"},
		},
	}}
	got := declaredUsers(a)
	want := []string{"alice", "olduser", "root"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("declaredUsers = %v, want %v", got, want)
	}
}
