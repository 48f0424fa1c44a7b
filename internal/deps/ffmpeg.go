package deps

import (
	"errors"
	"runtime"
	"strings"
)

// ErrFFmpegMissing reports that ffmpeg is not on PATH.
var ErrFFmpegMissing = errors.New("ffmpeg not found")

// CheckFFmpeg reports whether the ffmpeg binary resolves and, when it does
// not, the install command for the current platform.
func CheckFFmpeg(binary string) Status {
	return checkFFmpeg(binary, runtime.GOOS)
}

func checkFFmpeg(binary, goos string) Status {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	status := Check(Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Audio extraction and subtitle burning",
	})
	if !status.Available {
		status.Remediation = FFmpegRemediation(goos)
	}
	return status
}

// FFmpegRemediation returns install instructions for goos.
func FFmpegRemediation(goos string) string {
	switch goos {
	case "windows":
		return "Install ffmpeg with Chocolatey: choco install ffmpeg"
	case "darwin":
		return "Install ffmpeg with Homebrew: brew install ffmpeg"
	case "linux":
		return "Install ffmpeg with your package manager: sudo apt install ffmpeg (Debian/Ubuntu) or sudo yum install ffmpeg (CentOS/Fedora)"
	default:
		return "Install ffmpeg from https://ffmpeg.org/download.html and make sure it is on PATH"
	}
}
