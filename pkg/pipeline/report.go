package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/graphscope/pkg/chain"
	"github.com/matzehuels/graphscope/pkg/coupling"
	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/facts"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/insights"
	"github.com/matzehuels/graphscope/pkg/rank"
)

// ReportVersion is the version of the report format.
const ReportVersion = 1

// Report is the combined output of every analysis over one session.
type Report struct {
	Version     int       `json:"version"`
	ToolVersion string    `json:"tool_version"`
	SessionID   string    `json:"session_id,omitempty"`
	GraphHash   string    `json:"graph_hash"`
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
	CacheInfo   CacheInfo `json:"-"`

	Summary  insights.Summary `json:"summary"`
	Cycles   CycleReport      `json:"cycles"`
	Coupling CouplingReport   `json:"coupling"`
	DeadCode *deadcode.Report `json:"dead_code"`
	// CallChain is the longest call chain.
	CallChain chain.Result `json:"call_chain"`
	Hotspots  HotspotReport `json:"hotspots"`

	Patterns    []insights.Pattern    `json:"patterns"`
	Suggestions []insights.Suggestion `json:"suggestions"`
	Skipped     []facts.Skipped       `json:"skipped,omitempty"`
}

// CycleReport holds the cycles of both graphs with one resolution
// suggestion per cycle.
type CycleReport struct {
	Calls cycles.Analysis `json:"calls"`
	Deps  cycles.Analysis `json:"deps"`
}

// CouplingReport holds the metrics of every module and the modules flagged
// past the threshold.
type CouplingReport struct {
	Threshold   float64                     `json:"threshold"`
	Modules     map[string]coupling.Metrics `json:"modules"`
	Suggestions []coupling.Suggestion       `json:"suggestions"`
}

// HotspotReport ranks the most central functions and modules.
type HotspotReport struct {
	Functions []rank.Score `json:"functions"`
	Modules   []rank.Score `json:"modules"`
}

// MarshalReport encodes r as indented JSON.
func MarshalReport(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// WriteReport writes r as indented JSON.
func WriteReport(r *Report, w io.Writer) error {
	data, err := MarshalReport(r)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteReportFile writes r to path.
func WriteReportFile(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteReport(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReport decodes a report. Reports of another format version fail with
// UNSUPPORTED.
func ReadReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode report")
	}
	if rep.Version != ReportVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "report version %d (want %d)", rep.Version, ReportVersion)
	}
	return &rep, nil
}

// ReadReportFile reads a report from path.
func ReadReportFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "report %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadReport(f)
}
