package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// DownloadActivity streams the original upload of an activity (a zip
// containing the FIT file) into destDir and returns the written path.
// Progress is rendered to progressOut; pass io.Discard to silence it.
func (a *API) DownloadActivity(ctx context.Context, activityID int64, destDir string, progressOut io.Writer) (string, error) {
	if progressOut == nil {
		progressOut = io.Discard
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := fmt.Sprintf("/download-service/files/activity/%d", activityID)
	resp, err := a.Do(ctx, http.MethodGet, "connectapi", path, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	fileName := fmt.Sprintf("activity_%d.zip", activityID)
	destPath := filepath.Join(destDir, fileName)
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	bar := progressbar.NewOptions64(
		resp.ContentLength,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", fileName)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetPredictTime(false),
	)

	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		// Leave the partial file on disk; a re-run overwrites it.
		return "", fmt.Errorf("failed to download activity %d: %w", activityID, err)
	}

	log.Info().Str("path", destPath).Msg("Activity downloaded")
	return destPath, nil
}
