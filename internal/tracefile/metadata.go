package tracefile

import (
	"os"

	"github.com/google/uuid"

	"runtrace/internal/tracelog"
	"runtrace/internal/types"
	"runtrace/internal/version"
)

// RecorderName identifies traces produced by this module.
const RecorderName = "runtrace"

// Metadata is the content of trace_metadata.json.
type Metadata struct {
	Recorder  string                    `json:"recorder"`
	Version   string                    `json:"recorder_version"`
	SessionID string                    `json:"session_id"`
	Program   string                    `json:"program"`
	Args      []string                  `json:"args"`
	Workdir   string                    `json:"workdir"`
	Format    string                    `json:"format"`
	Types     []types.TypeRecord        `json:"types"`
	Functions []tracelog.FunctionRecord `json:"functions"`
	Variables []string                  `json:"variables"`
}

// NewMetadata describes a session of program with args, started in the
// current working directory.
func NewMetadata(program string, args []string) Metadata {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	if args == nil {
		args = []string{}
	}
	return Metadata{
		Recorder:  RecorderName,
		Version:   version.Version,
		SessionID: uuid.NewString(),
		Program:   program,
		Args:      args,
		Workdir:   wd,
	}
}

// Trace is a complete session as persisted.
type Trace struct {
	Format   Format
	Records  []tracelog.Record
	Metadata Metadata
	Paths    []string
}
