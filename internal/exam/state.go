package exam

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshot is the persisted mid-exam state. It is written on every state
// change so a restart mid-exam resumes instead of restarting, and deleted
// only once the submission is confirmed delivered.
type snapshot struct {
	Answers      map[string]string `json:"answers"`
	CurrentIndex int               `json:"currentIndex"`
	TimeLeftSec  int               `json:"timeLeft"`
	Visited      []int             `json:"visited"`
	Marked       []int             `json:"marked"`
}

func statePath(dir, studentName string) string {
	return filepath.Join(dir, fmt.Sprintf("mcq_state_%s.json", studentName))
}

func saveSnapshot(dir, studentName string, snap snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	path := statePath(dir, studentName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadSnapshot(dir, studentName string) (snapshot, bool) {
	data, err := os.ReadFile(statePath(dir, studentName))
	if err != nil {
		return snapshot{}, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, false
	}
	return snap, true
}

func clearSnapshot(dir, studentName string) {
	_ = os.Remove(statePath(dir, studentName))
}
