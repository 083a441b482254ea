package validation

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/xuri/excelize/v2"

	"taxipulse/internal/infrastructure"
)

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	pdfSignature = []byte("%PDF-")
)

// OutputValidator checks written run outputs
type OutputValidator struct {
	logger *slog.Logger
}

// NewOutputValidator creates a validator. A nil logger uses the global logger.
func NewOutputValidator(logger *slog.Logger) *OutputValidator {
	return &OutputValidator{logger: infrastructure.WithComponent(logger, "output_validator")}
}

// ValidateFile checks that path is a readable, non-empty regular file
func (v *OutputValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		v.logger.Error("File is empty", slog.String("file", path))
		return fmt.Errorf("file %s is empty", path)
	}

	v.logger.Debug("File validated", slog.String("file", path), slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSV checks that the header row of the CSV at path equals headers.
// A leading UTF-8 BOM is ignored.
func (v *OutputValidator) ValidateCSV(path string, headers []string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	got, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err == io.EOF {
		return fmt.Errorf("csv %s has no header", path)
	}
	if err != nil {
		return fmt.Errorf("invalid csv %s: %w", path, err)
	}
	if !slices.Equal(got, headers) {
		v.logger.Error("Unexpected CSV header",
			slog.String("file", path),
			slog.Any("want", headers),
			slog.Any("got", got))
		return fmt.Errorf("csv %s: header %v, want %v", path, got, headers)
	}
	return nil
}

// ValidateWorkbook checks that the xlsx at path opens and holds every sheet
func (v *OutputValidator) ValidateWorkbook(path string, sheets []string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("invalid workbook %s: %w", path, err)
	}
	defer f.Close()

	present := f.GetSheetList()
	for _, s := range sheets {
		if !slices.Contains(present, s) {
			v.logger.Error("Workbook sheet missing", slog.String("file", path), slog.String("sheet", s))
			return fmt.Errorf("workbook %s: missing sheet %q", path, s)
		}
	}
	return nil
}

// ValidatePDF checks the PDF signature of the file at path
func (v *OutputValidator) ValidatePDF(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer file.Close()

	head := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, pdfSignature) {
		return fmt.Errorf("file %s is not a PDF", path)
	}
	return nil
}

// ValidateFiles checks each path with ValidateFile and returns the first
// failure
func (v *OutputValidator) ValidateFiles(paths []string) error {
	for _, p := range paths {
		if err := v.ValidateFile(p); err != nil {
			return err
		}
	}
	return nil
}
