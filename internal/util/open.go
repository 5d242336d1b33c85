package util

import (
	"os/exec"
	"runtime"
)

// launcher 返回打开 target 的系统命令
func launcher(goos, target string) []string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}
	case "darwin":
		return []string{"open", target}
	default:
		return []string{"xdg-open", target}
	}
}

// fallbacks 主方式失败后依次尝试的命令
func fallbacks(goos, target string) [][]string {
	switch goos {
	case "windows":
		return [][]string{{"explorer", target}}
	case "linux":
		return [][]string{{"gio", "open", target}, {"sensible-browser", target}}
	default:
		return nil
	}
}

// OpenWithDefaultApp 用系统默认程序打开文件或地址（如导出的工作簿）
func OpenWithDefaultApp(target string) error {
	args := launcher(runtime.GOOS, target)
	err := exec.Command(args[0], args[1:]...).Start()
	if err == nil {
		return nil
	}

	for _, alt := range fallbacks(runtime.GOOS, target) {
		if exec.Command(alt[0], alt[1:]...).Start() == nil {
			return nil
		}
	}
	return err
}
