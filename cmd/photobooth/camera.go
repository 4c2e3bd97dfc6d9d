package main

import (
	"log/slog"
	"time"

	"github.com/adampresley/photostrip/cmd/photobooth/internal/configuration"
	"github.com/adampresley/photostrip/pkg/camera"
	"github.com/adampresley/photostrip/pkg/models"
)

func setupCamera(config *configuration.Config) camera.Device {
	timeout := time.Duration(config.CameraTimeoutSeconds) * time.Second

	switch config.CameraKind {
	case "hotfolder":
		return camera.NewHotFolderDevice(camera.HotFolderDeviceConfig{
			Dir:        config.CameraDir,
			Logger:     slog.Default(),
			MirrorUser: config.MirrorUser,
			Timeout:    timeout,
		})

	case "snapshot":
		return camera.NewSnapshotDevice(camera.SnapshotDeviceConfig{
			Logger:     slog.Default(),
			MirrorUser: config.MirrorUser,
			Timeout:    timeout,
			URLs: map[models.FacingMode]string{
				models.FacingUser:        config.SnapshotUrlUser,
				models.FacingEnvironment: config.SnapshotUrlEnvironment,
			},
		})

	case "directory":
	default:
		slog.Warn("unknown camera kind, using the directory camera", "camera", config.CameraKind)
	}

	return camera.NewDirectoryDevice(camera.DirectoryDeviceConfig{
		Dir:        config.CameraDir,
		Logger:     slog.Default(),
		MirrorUser: config.MirrorUser,
	})
}
