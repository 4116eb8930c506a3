// Command drivesearch is a small CLI over the backend API, used for demos
// and smoke testing: search the frame index, manage the video library, and
// drive export jobs end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/drivesearch/drivesearch/internal/client"
	"github.com/drivesearch/drivesearch/internal/config"
	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "drivesearch-cli",
	})
	logger.SetDefaultLogger(appLogger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	api := client.New(&client.Options{
		BaseURL:      cfg.Client.BaseURL,
		Token:        cfg.Client.Token,
		Timeout:      cfg.Client.Timeout,
		PollInterval: cfg.Client.PollInterval,
		ListCacheTTL: cfg.Client.ListCacheTTL,
		OnUnauthorized: func() {
			logger.Warn("Request rejected with 401; check API_TOKEN")
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cmdErr error
	switch os.Args[1] {
	case "search":
		cmdErr = runSearch(ctx, api, os.Args[2:])
	case "videos":
		cmdErr = runVideos(ctx, api, os.Args[2:])
	case "upload":
		cmdErr = runUpload(ctx, api, os.Args[2:])
	case "export":
		cmdErr = runExport(ctx, api, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		appLogger.WithError(cmdErr).Fatal("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: drivesearch <command> [flags]

Commands:
  search   search frames by text or image
  videos   list or delete videos
  upload   upload a video file
  export   create, wait for, and download exports`)
}

func runSearch(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("query", "", "Text query")
	imagePath := fs.String("image", "", "Path to a query image (jpeg, png, webp)")
	limit := fs.Int("limit", 0, "Maximum results (default 10, capped at 100)")
	threshold := fs.Float64("threshold", -1, "Similarity threshold in [0, 1]")
	weather := fs.String("weather", "", "Filter by weather")
	timeOfDay := fs.String("time-of-day", "", "Filter by time of day")
	fs.Parse(args)

	var filters *domain.SearchFilters
	if *weather != "" || *timeOfDay != "" {
		filters = &domain.SearchFilters{Weather: *weather, TimeOfDay: *timeOfDay}
	}
	var t *float32
	if *threshold >= 0 {
		t32 := float32(*threshold)
		t = &t32
	}

	var resp *domain.SearchResponse
	var err error
	if *imagePath != "" {
		f, openErr := os.Open(*imagePath)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		resp, err = api.Search().SearchByImage(ctx, client.ImageQuery{
			Filename:  filepath.Base(*imagePath),
			Reader:    f,
			Limit:     *limit,
			Threshold: t,
			Filters:   filters,
		})
	} else {
		resp, err = api.Search().SearchByText(ctx, client.TextQuery{
			Query:     *query,
			Limit:     *limit,
			Threshold: t,
			Filters:   filters,
		})
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d results (%d matched, %dms)\n", len(resp.Results), resp.TotalFound, resp.SearchTimeMs)
	for _, r := range resp.Results {
		fmt.Printf("  %.3f  video=%s  t=%.1fs  frame=%s\n", r.Similarity, r.VideoID, r.Timestamp, r.FrameID)
	}
	return nil
}

func runVideos(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("videos", flag.ExitOnError)
	deleteID := fs.String("delete", "", "Delete the video with this ID")
	weather := fs.String("weather", "", "Filter by weather")
	timeOfDay := fs.String("time-of-day", "", "Filter by time of day")
	fs.Parse(args)

	if *deleteID != "" {
		if err := api.Videos().Delete(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *deleteID)
		return nil
	}

	list, err := api.Videos().List(ctx, &domain.VideoFilters{
		Weather:   *weather,
		TimeOfDay: *timeOfDay,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d videos\n", list.Total)
	for _, v := range list.Videos {
		fmt.Printf("  %s  %-32s  %.0fs  %s\n", v.ID, v.Filename, v.DurationSeconds, v.ProcessingStatus)
	}
	return nil
}

func runUpload(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	path := fs.String("file", "", "Path to the video file")
	weather := fs.String("weather", "", "Weather label for the footage")
	timeOfDay := fs.String("time-of-day", "", "Time-of-day label for the footage")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-file is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	var meta *domain.VideoMetadata
	if *weather != "" || *timeOfDay != "" {
		meta = &domain.VideoMetadata{Weather: *weather, TimeOfDay: *timeOfDay}
	}

	accepted, err := api.Videos().Upload(ctx, &client.UploadRequest{
		Filename: filepath.Base(*path),
		Reader:   f,
		Size:     info.Size(),
		Metadata: meta,
	})
	if err != nil {
		return err
	}

	fmt.Printf("accepted %s (%s, ~%.0fs to process)\n",
		accepted.VideoID, accepted.ProcessingStatus, accepted.EstimatedProcessingTime)
	return nil
}

func runExport(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	frames := fs.String("frames", "", "Comma-separated frame IDs to export")
	format := fs.String("format", "zip", "Export format: zip, dataset, or csv")
	wait := fs.Bool("wait", true, "Poll until the export reaches a terminal state")
	out := fs.String("out", "", "Download the archive to this path once completed")
	statusID := fs.String("status", "", "Print the status of an existing export and exit")
	deleteID := fs.String("delete", "", "Delete the export with this ID and exit")
	fs.Parse(args)

	if *statusID != "" {
		job, err := api.Exports().Get(ctx, *statusID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %d frames  %d bytes\n", job.ExportID, job.Status, job.FrameCount, job.SizeBytes)
		return nil
	}
	if *deleteID != "" {
		if err := api.Exports().Delete(ctx, *deleteID); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *deleteID)
		return nil
	}

	frameIDs := splitNonEmpty(*frames)
	accepted, err := api.Exports().Create(ctx, frameIDs, domain.ExportFormat(*format))
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", accepted.ExportID, accepted.Status)

	if !*wait {
		return nil
	}

	job, err := api.Exports().Wait(ctx, accepted.ExportID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", job.ExportID, job.Status)
	if job.Status != domain.ExportCompleted {
		return fmt.Errorf("export ended as %s: %s", job.Status, job.ErrorMessage)
	}

	if *out == "" {
		return nil
	}
	body, err := api.Exports().Download(ctx, job.ExportID)
	if err != nil {
		return err
	}
	defer body.Close()

	dst, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer dst.Close()
	n, err := io.Copy(dst, body)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d bytes to %s\n", n, *out)
	return nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
