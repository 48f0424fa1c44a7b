package i18n

// Message keys are the English text. Keys with verbs take Translatef args.
const (
	MsgStartingInstallation = "Starting Installation"
	MsgLanguageSet          = "Display language set to %s"
	MsgMirrorSkipped        = "Skipped PyPI mirror configuration"
	MsgMirrorConfigured     = "Using package index %s"
	MsgBootstrapPackages    = "Installing bootstrap packages"
	MsgGPUDetected          = "NVIDIA GPU detected, installing CUDA version of PyTorch..."
	MsgNoGPU                = "No NVIDIA GPU detected, installing CPU version of PyTorch... Note: it might be slow during whisperX transcription."
	MsgMacOSDetected        = "macOS detected, installing CPU version of PyTorch... Note: it might be slow during whisperX transcription."
	MsgTorchPresent         = "PyTorch is already installed"
	MsgTorchFailed          = "PyTorch installation failed: %s"
	MsgRequirements         = "Installing requirements"
	MsgRequirementsFile     = "Installing requirements using `pip install -r %s`"
	MsgRequirementsFailed   = "Failed to install requirements: %s"
	MsgFontsInstalled       = "Successfully installed Noto fonts using %s"
	MsgFontsFailed          = "Failed to install Noto fonts, please install manually"
	MsgFontsUnknownDistro   = "Unrecognized Linux distribution, please install Noto fonts manually"
	MsgFFmpegPresent        = "FFmpeg is already installed"
	MsgFFmpegMissing        = "FFmpeg not found"
	MsgInstallUsing         = "Install using:"
	MsgRerunInstaller       = "After installing FFmpeg, please run this installer again:"
	MsgFFmpegRequired       = "FFmpeg is required. Please install it and run the installer again."
	MsgInstallCompleted     = "Installation completed"
	MsgStartCommand         = "Now start the application with:"
	MsgFirstStartup         = "Note: First startup may take up to 1 minute"
	MsgIfFailsToStart       = "If the application fails to start:"
	MsgCheckNetwork         = "Check your network connection"
	MsgRerunBootstrap       = "Re-run the installer:"
	MsgInstalledFromCache   = "Installed %s from the wheel cache"
	MsgFetchedIntoCache     = "Downloaded %s into the wheel cache and installed it"
	MsgInstalledDirect      = "Installed %s from the package index"
	MsgAlreadyPresent       = "%s is already installed"
	MsgInstallFailed        = "%s installation failed: %s"
	MsgAllInstalled         = "All dependencies installed"
)

var simplifiedChinese = map[string]string{
	MsgStartingInstallation: "开始安装",
	MsgLanguageSet:          "已自动设置显示语言为 %s",
	MsgMirrorSkipped:        "已自动跳过PyPI镜像配置",
	MsgMirrorConfigured:     "使用软件包索引 %s",
	MsgBootstrapPackages:    "开始安装依赖库",
	MsgGPUDetected:          "检测到 NVIDIA GPU，正在安装 CUDA 版 PyTorch...",
	MsgNoGPU:                "未检测到 NVIDIA GPU，正在安装 CPU 版 PyTorch... 注意：whisperX 转录可能较慢。",
	MsgMacOSDetected:        "检测到 macOS，正在安装 CPU 版 PyTorch... 注意：whisperX 转录可能较慢。",
	MsgTorchPresent:         "检测到已安装 PyTorch",
	MsgTorchFailed:          "PyTorch 安装失败: %s",
	MsgRequirements:         "开始安装requirements依赖库",
	MsgRequirementsFile:     "使用 `pip install -r %s` 安装依赖",
	MsgRequirementsFailed:   "安装依赖失败: %s",
	MsgFontsInstalled:       "已使用 %s 安装 Noto 字体",
	MsgFontsFailed:          "Noto 字体安装失败，请手动安装",
	MsgFontsUnknownDistro:   "无法识别的 Linux 发行版，请手动安装 Noto 字体",
	MsgFFmpegPresent:        "FFmpeg 已安装",
	MsgFFmpegMissing:        "未找到 FFmpeg",
	MsgInstallUsing:         "安装方法:",
	MsgRerunInstaller:       "安装 FFmpeg 后，请重新运行安装程序:",
	MsgFFmpegRequired:       "需要 FFmpeg。请安装后重新运行安装程序。",
	MsgInstallCompleted:     "安装完成",
	MsgStartCommand:         "现在使用以下命令启动应用:",
	MsgFirstStartup:         "注意：首次启动可能需要 1 分钟",
	MsgIfFailsToStart:       "如果应用启动失败:",
	MsgCheckNetwork:         "检查网络连接",
	MsgRerunBootstrap:       "重新运行安装程序:",
	MsgInstalledFromCache:   "发现 %s 安装包，已从缓存安装",
	MsgFetchedIntoCache:     "%s 已下载到缓存并安装成功",
	MsgInstalledDirect:      "已使用在线安装方式安装 %s",
	MsgAlreadyPresent:       "%s 已安装",
	MsgInstallFailed:        "%s 安装失败: %s",
	MsgAllInstalled:         "所有依赖库安装完成",
}
