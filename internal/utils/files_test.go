package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/utils"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := utils.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	p := filepath.Join(dir, "report.json")
	for _, body := range []string{"first", "second"} {
		if err := utils.SafeWriteFile(p, []byte(body)); err != nil {
			t.Fatalf("SafeWriteFile: %v", err)
		}
	}
	got, err := os.ReadFile(p)
	if err != nil || string(got) != "second" {
		t.Fatalf("content = %q err=%v", got, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"a\": 1") {
		t.Fatalf("not indented: %s", b)
	}
}
