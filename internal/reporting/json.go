package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aideng18/PyWard/internal/pysrc"
)

func WriteJSON(runID, outDir string, rep *pysrc.Report) (string, error) {
	path := filepath.Join(outDir, runID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return "", err
	}
	return path, nil
}
