package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"kripton-qr-reader/internal/decoder"
	"kripton-qr-reader/internal/logger"
	"kripton-qr-reader/internal/pipeline"
	"kripton-qr-reader/internal/scan"
	"kripton-qr-reader/internal/settings"
)

type app struct {
	coordinator *pipeline.Coordinator
	settings    settings.Settings
	input       *bufio.Reader
	resultsPath string
	debugDir    string
}

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	resultsPath := flag.String("results", "", "append decoded payloads to this file (created 0600)")
	debugDir := flag.String("debug-dir", "", "dump enhancement candidates as PNG files into this directory")
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)

	cfg, err := settings.Load()
	if err != nil {
		log.Warning("Main", "could not load settings, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
	}

	a := &app{
		coordinator: pipeline.NewCoordinator(decoder.NewZXing(), log),
		settings:    cfg,
		input:       bufio.NewReader(os.Stdin),
		resultsPath: *resultsPath,
		debugDir:    *debugDir,
	}
	a.run()
}

func (a *app) run() {
	for {
		fmt.Println("\n--- Kripton QR Code Reader ---")
		fmt.Println("1. Read QR Code from Images in Scan Directory")
		fmt.Println("2. Settings")
		fmt.Println("3. Exit")

		switch a.prompt("Make your selection (1-3): ") {
		case "1":
			if err := a.readQRCode(); err != nil {
				fmt.Printf("Error: QR code reading failed: %v\n", err)
			}
		case "2":
			if err := a.settingsMenu(); err != nil {
				fmt.Printf("Error: could not change settings: %v\n", err)
			}
		case "3":
			fmt.Println("Exiting application...")
			return
		default:
			fmt.Println("Invalid selection. Please enter 1, 2, or 3.")
		}
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, err := a.input.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (a *app) readQRCode() error {
	if a.settings.ScanDirectory == "" {
		fmt.Println("Error: please set the scan directory first from the settings menu.")
		return nil
	}

	fmt.Printf("Scan Directory: %s\n", a.settings.ScanDirectory)
	files, err := scan.ListImages(a.settings.ScanDirectory)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No supported image files found in the directory (supported: png, jpg, jpeg, bmp, gif, webp).")
		return nil
	}

	fmt.Println("\nFound Images (Alphabetical Order):")
	for i, file := range files {
		fmt.Printf("%d. %s\n", i+1, filepath.Base(file))
	}

	choice := a.prompt(fmt.Sprintf("Please enter the number of the image to read (1-%d): ", len(files)))
	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(files) {
		fmt.Println("Invalid selection.")
		return nil
	}
	path := files[index-1]
	fmt.Printf("Selected image: %s\n", path)
	fmt.Println("Processing image with multiple techniques...")

	params := a.settings.PipelineParams()
	params.DebugDir = a.debugDir

	result, err := a.coordinator.ReadFile(context.Background(), path, params)
	if errors.Is(err, pipeline.ErrNoQRCodeFound) {
		fmt.Println("No QR code could be decoded from the selected image.")
		return nil
	}
	if err != nil {
		return err
	}
	defer result.Wipe()

	fmt.Printf("\n%d unique QR code(s) successfully decoded!\n", len(result.Payloads))

	if a.settings.AutoCopyToClipboard && len(result.Payloads) == 1 {
		if err := clipboard.WriteAll(result.Payloads[0].Text()); err != nil {
			fmt.Printf("Warning: could not copy content to clipboard: %v\n", err)
		} else {
			fmt.Println("Content of the QR code has been automatically copied to the clipboard.")
		}
	}

	for i := range result.Payloads {
		payload := &result.Payloads[i]
		fmt.Printf("--- QR Code %d ---\n", i+1)
		fmt.Printf("Content: %s\n", payload.Text())
		fmt.Printf("Found at: %.2fx scale (%s)\n", payload.Scale, payload.Candidate)
	}

	if a.resultsPath != "" {
		if err := a.appendResults(path, result); err != nil {
			fmt.Printf("Warning: could not write results file: %v\n", err)
		}
	}
	return nil
}

// appendResults writes decoded payloads to the results file, creating it with
// owner-only permissions.
func (a *app) appendResults(imagePath string, result *pipeline.Result) error {
	file, err := os.OpenFile(a.resultsPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	for i := range result.Payloads {
		payload := &result.Payloads[i]
		if _, err := fmt.Fprintf(file, "%s\t%.2fx\t%s\n", filepath.Base(imagePath), payload.Scale, payload.Text()); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) settingsMenu() error {
	for {
		fmt.Println("\n--- Settings Menu ---")
		if a.settings.ScanDirectory != "" {
			fmt.Printf("1. Set Scan Directory (Current: %s)\n", a.settings.ScanDirectory)
		} else {
			fmt.Println("1. Set Scan Directory (Current: NOT SET)")
		}
		status := "Disabled"
		if a.settings.AutoCopyToClipboard {
			status = "Enabled"
		}
		fmt.Printf("2. Toggle Auto-copy to Clipboard (Current: %s)\n", status)
		fmt.Println("3. Back to Main Menu")

		switch a.prompt("Make your selection (1-3): ") {
		case "1":
			path := a.prompt("Enter New Scan Directory Path (or leave empty to cancel): ")
			if path == "" {
				fmt.Println("No path entered, operation cancelled.")
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				fmt.Println("Error: the entered path is not a valid directory.")
				continue
			}
			a.settings.ScanDirectory = path
			fmt.Println("Scan directory updated successfully. Saving...")
			if err := a.settings.Save(); err != nil {
				return err
			}
		case "2":
			a.settings.AutoCopyToClipboard = !a.settings.AutoCopyToClipboard
			status := "Disabled"
			if a.settings.AutoCopyToClipboard {
				status = "Enabled"
			}
			fmt.Printf("Auto-copy to clipboard is now %s. Saving...\n", status)
			if err := a.settings.Save(); err != nil {
				return err
			}
		case "3":
			return nil
		default:
			fmt.Println("Invalid selection. Please enter 1, 2, or 3.")
		}
	}
}
