package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rafabd1/LeakHound/core/category"
	"github.com/rafabd1/LeakHound/core/results"
	"github.com/rafabd1/LeakHound/core/validator"
	"github.com/rafabd1/LeakHound/utils"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// FormatFor picks the output format from a file extension, defaulting to text.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	}
	return FormatText
}

type IDCardRecord struct {
	Value string `json:"value"`
	validator.IDCardInfo
}

// Report is one snapshot of a scan session.
type Report struct {
	SessionID  string           `json:"sessionId"`
	Targets    []string         `json:"targets"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Processed  int              `json:"processed"`
	Failed     int              `json:"failed"`
	Total      int              `json:"total"`
	Results    *results.Results `json:"results"`
	IDCards    []IDCardRecord   `json:"idCardDetails,omitempty"`
}

// NewReport attaches ID-card metadata for every idCards finding.
func NewReport(sessionID string, targets []string, r *results.Results) Report {
	rep := Report{
		SessionID: sessionID,
		Targets:   targets,
		Results:   r,
		Total:     r.Total(),
	}
	for _, v := range r.Get(category.IDCards) {
		if res := validator.IDCard(v); res.Valid && res.IDCard != nil {
			rep.IDCards = append(rep.IDCards, IDCardRecord{Value: v, IDCardInfo: *res.IDCard})
		}
	}
	return rep
}

/*
   Writer persists report snapshots. Every Write replaces the whole file
   through a temp file and rename, so watch mode never leaves a partial
   report behind.
*/
type Writer struct {
	path   string
	format Format
	mu     sync.Mutex
	count  int
}

func NewWriter(outputPath string) (*Writer, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, utils.NewError(utils.ProcessingError, "failed to create output directory", err)
	}
	return &Writer{path: outputPath, format: FormatFor(outputPath)}, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Format() Format {
	return w.format
}

func (w *Writer) Write(rep Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".leakhound-*")
	if err != nil {
		return utils.NewError(utils.ProcessingError, "failed to create output file", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, w.format, rep); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return utils.NewError(utils.ProcessingError, "failed to finalize output file", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return utils.NewError(utils.ProcessingError, "failed to replace output file", err)
	}
	w.count++
	return nil
}

// GetCount returns how many snapshots were written.
func (w *Writer) GetCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func Encode(out io.Writer, format Format, rep Report) error {
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	case FormatCSV:
		err = encodeCSV(out, rep)
	default:
		err = encodeText(out, rep)
	}
	if err != nil {
		return utils.NewError(utils.ProcessingError, fmt.Sprintf("failed to write %s output", format), err)
	}
	return nil
}

// displayValue masks ID numbers in human-readable reports. JSON keeps the
// raw values.
func displayValue(key, value string) string {
	switch key {
	case category.IDCards.Key(), category.SensitiveKeywords.Key():
		return validator.MaskIDCard(value)
	}
	return value
}

func encodeCSV(out io.Writer, rep Report) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"Category", "Value"}); err != nil {
		return err
	}
	var werr error
	rep.Results.Each(func(key string, values []string) {
		for _, v := range values {
			if werr == nil {
				werr = cw.Write([]string{key, displayValue(key, v)})
			}
		}
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}

func encodeText(out io.Writer, rep Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", rep.SessionID)
	if len(rep.Targets) > 0 {
		fmt.Fprintf(&b, "Targets: %s\n", strings.Join(rep.Targets, ", "))
	}
	fmt.Fprintf(&b, "Findings: %d\n", rep.Total)

	rep.Results.Each(func(key string, values []string) {
		if len(values) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n[%s] (%d)\n", key, len(values))
		for _, v := range values {
			fmt.Fprintf(&b, "  %s\n", displayValue(key, v))
		}
	})

	if len(rep.IDCards) > 0 {
		b.WriteString("\n[idCardDetails]\n")
		for _, c := range rep.IDCards {
			fmt.Fprintf(&b, "  %s %s %s %s %s\n", validator.MaskIDCard(c.Value), c.Type, c.Province, c.BirthDate, c.Gender)
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}
