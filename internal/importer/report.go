package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteReport 把任务结果写成 JSON（先写临时文件再改名）
func WriteReport(path string, report *RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
