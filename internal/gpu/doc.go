// Package gpu reports NVIDIA GPU availability by querying nvidia-smi. It is
// used only to choose between the CUDA and CPU PyTorch builds.
package gpu
