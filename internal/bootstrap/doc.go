// Package bootstrap runs the environment bootstrap end to end: preflight
// checks, display language, bootstrap packages, the PyTorch build matching
// the host GPU, optional Noto fonts, project requirements, and the ffmpeg
// check. Every artifact goes through the installer's tiered resolution so a
// warm wheel cache needs no network.
package bootstrap
