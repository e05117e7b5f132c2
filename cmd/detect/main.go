package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/config"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/database"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/logger"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/models"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/ai"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/capture"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/storage"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/websocket"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/weights"
)

func main() {
	cfg := config.Load()

	weightsFlag := flag.String("weights", "", "Override weights path (.onnx). If omitted, uses WEIGHTS_PATH from the environment or .env")
	sourceFlag := flag.String("source", cfg.Source, "Inference source: 0 for default webcam, or a video/image path/URL")
	confFlag := flag.Float64("conf", cfg.Confidence, "Confidence threshold")
	imgszFlag := flag.Int("imgsz", cfg.InputSize, "Inference image size")
	nmsFlag := flag.Float64("nms", cfg.NMSThreshold, "IoU threshold for non-maximum suppression")
	deviceFlag := flag.String("device", cfg.Device, "Device to run on: '' (auto), 'cpu', or 'cuda:0'")
	showFlag := flag.Bool("show", false, "Show result window(s); press 'q' to quit")
	saveFlag := flag.Bool("save", false, "Save annotated frames to the runs directory")
	checkFlag := flag.Bool("check", false, "Only check that the weights file can be resolved, then exit")
	intervalFlag := flag.Int("interval", cfg.Interval, "Run detection every Nth frame")
	namesFlag := flag.String("names", cfg.NamesPath, "Label list file overriding the built-in fire/smoke/person classes")
	dbFlag := flag.String("db", cfg.DatabasePath, "Log detections to this SQLite database")
	serveFlag := flag.String("serve", cfg.ServeAddress, "Serve annotated frames to websocket viewers, e.g. :8080")
	flag.Parse()

	// Choose weights: CLI override or configured default
	weightsSpec := *weightsFlag
	if weightsSpec == "" {
		weightsSpec = cfg.WeightsPath
	}

	weightsPath, err := weights.Resolve(weightsSpec)
	if err != nil {
		fmt.Println(err)
		fmt.Println("Hint: set WEIGHTS_PATH in the environment or .env to your .onnx file,")
		fmt.Println("      or pass --weights <path-to-weights.onnx> when running.")
		os.Exit(1)
	}

	fmt.Printf("Using weights: %s\n", weightsPath)
	if *checkFlag {
		fmt.Println("Weights file resolved successfully. Exiting due to --check.")
		return
	}

	appLogger, err := logger.New(cfg.LogDirectory)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	var names []string
	if *namesFlag != "" {
		names, err = ai.LoadNames(*namesFlag)
		if err != nil {
			log.Fatalf("Failed to load class names: %v", err)
		}
	}

	detector, err := ai.NewDetectorService(ai.Options{
		WeightsPath:  weightsPath,
		Names:        names,
		InputSize:    *imgszFlag,
		Confidence:   *confFlag,
		NMSThreshold: *nmsFlag,
		Device:       *deviceFlag,
	}, appLogger)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer detector.Close()

	source := capture.Parse(*sourceFlag)

	var db *database.Database
	var runID int64
	if *dbFlag != "" {
		db, err = database.New(*dbFlag)
		if err != nil {
			log.Fatalf("Failed to open detection log: %v", err)
		}
		defer db.Close()

		runID, err = db.InsertRun(&database.Run{
			Weights:   weightsPath,
			Source:    source.String(),
			StartedAt: time.Now(),
		})
		if err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
	}

	var buffer *storage.BufferService
	if *saveFlag {
		buffer = storage.NewBufferService(cfg.RunsDirectory, cfg.BufferLimit, appLogger)
		go buffer.Run(cfg.FlushInterval)
		defer func() {
			buffer.Stop()
			buffer.Flush()
		}()
		fmt.Printf("Saving annotated frames to: %s\n", buffer.Dir())
	}

	var hub *websocket.HubService
	if *serveFlag != "" {
		hub = websocket.NewHubService(appLogger)
		go hub.Run()
		go func() {
			if err := hub.Serve(*serveFlag); err != nil {
				appLogger.Error("Viewer endpoint failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := services.NewManager(detector, buffer, hub, db, services.Options{
		RunID:    runID,
		Interval: *intervalFlag,
		Show:     *showFlag,
	}, appLogger)

	fmt.Printf("Starting inference on source: %s\n", source)

	if err := manager.Run(ctx, source); err != nil {
		appLogger.Error("Inference failed: %v", err)
		cleanup(buffer, db)
		appLogger.Close()
		os.Exit(1)
	}

	appLogger.Info("Run complete: %d frame(s) read", manager.FrameCount())

	if source.Finite() {
		printSummary(manager.FirstDetections())
	}
}

// cleanup flushes pending frames and closes the detection log. Used on the
// error path, where os.Exit skips the deferred shutdown.
func cleanup(buffer *storage.BufferService, db *database.Database) {
	if buffer != nil {
		buffer.Stop()
		buffer.Flush()
	}
	if db != nil {
		db.Close()
	}
}

// printSummary reports the first processed frame's detections. Kept
// best-effort so a malformed result never turns a finished run into a crash.
func printSummary(detections []models.Detection) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("  Parsed results summary unavailable (non-critical).")
		}
	}()

	fmt.Println("Done. Example detections (first frame):")
	for _, line := range models.SummaryLines(detections) {
		fmt.Println(line)
	}
}
