package core

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, val string) {
	old, ok := os.LookupEnv(key)
	if err := os.Setenv(key, val); err != nil {
		t.Fatalf("Setenv(%q) failed: %v", key, err)
	}
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestNewConfig(t *testing.T) {
	setEnv(t, "ENV", "test")
	setEnv(t, "TEST_DATABASE_HOST", "db.local")
	setEnv(t, "TEST_SERVER_PORT", "9090")
	setEnv(t, "TEST_UPGRADE_REMINDERWINDOW", "36h")
	setEnv(t, "TEST_TASKS_WORKERS", "2")

	conf, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if conf.Env != "TEST" {
		t.Errorf("Env = %q, want %q", conf.Env, "TEST")
	}
	if !conf.TestMode {
		t.Error("TestMode = false, want true")
	}
	if got, want := conf.Database.Address(), "db.local:5432"; got != want {
		t.Errorf("Database.Address() = %q, want %q", got, want)
	}
	if got, want := conf.Server.Address(), ":9090"; got != want {
		t.Errorf("Server.Address() = %q, want %q", got, want)
	}
	if conf.Upgrade.ReminderWindow != 36*time.Hour {
		t.Errorf("Upgrade.ReminderWindow = %v, want %v", conf.Upgrade.ReminderWindow, 36*time.Hour)
	}
	if conf.Upgrade.DeadlineDays != 21 {
		t.Errorf("Upgrade.DeadlineDays = %d, want 21", conf.Upgrade.DeadlineDays)
	}
	if conf.Tasks.Workers != 2 || conf.Tasks.QueueSize != 100 {
		t.Errorf("Tasks = %+v, want {Workers:2 QueueSize:100}", conf.Tasks)
	}
	if conf.Server.PasswordResetTimeoutDelta != 3*24*time.Hour {
		t.Errorf("Server.PasswordResetTimeoutDelta = %v, want 72h", conf.Server.PasswordResetTimeoutDelta)
	}
	if from := conf.DefaultFromEmail(); from.Name != conf.AppName {
		t.Errorf("DefaultFromEmail().Name = %q, want %q", from.Name, conf.AppName)
	}
}
