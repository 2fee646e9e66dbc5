package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"padron/internal/identity/handler"
	"padron/internal/identity/models"
	"padron/internal/identity/registry"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // every lookup succeeded
	ExitFailure      = 1 // at least one lookup failed
	ExitCommandError = 2 // bad flags or configuration
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// lookupOutput is the JSON form of one successful lookup.
type lookupOutput struct {
	handler.PersonResponse
	Cached bool `json:"cached"`
}

// lookupFailure is the JSON form of one failed lookup.
type lookupFailure struct {
	DNI     string `json:"dni"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// formatter renders lookups in the configured format.
type formatter struct {
	format string
	out    io.Writer
	errOut io.Writer
}

func (f *formatter) record(record models.PersonRecord, cached bool, at time.Time) error {
	if f.format == "json" {
		return json.NewEncoder(f.out).Encode(lookupOutput{
			PersonResponse: handler.FromRecord(&record, at),
			Cached:         cached,
		})
	}
	tw := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	source := "registro"
	if cached {
		source = "historial"
	}
	rows := [][2]string{
		{"DNI", record.ID},
		{"Nombre completo", record.FullName},
		{"Fecha de nacimiento", orDash(record.BirthDate)},
		{"Sexo", orDash(record.Sex)},
		{"Estado civil", orDash(record.MaritalStatus)},
		{"Dirección", orDash(record.Address)},
		{"Distrito", orDash(record.District)},
		{"Provincia", orDash(record.Province)},
		{"Departamento", orDash(record.Department)},
		{"Fuente", source},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func (f *formatter) failure(rawID string, err error) error {
	_, message := handler.Translate(err)
	kind := string(registry.KindOf(err))
	if f.format == "json" {
		return json.NewEncoder(f.out).Encode(lookupFailure{DNI: rawID, Error: kind, Message: message})
	}
	_, werr := fmt.Fprintf(f.errOut, "Error [%s] %s: %s\n", kind, rawID, message)
	return werr
}

func (f *formatter) history(entries []models.HistoryEntry) error {
	if f.format == "json" {
		out := make([]handler.PersonResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, handler.FromRecord(&e.Record, e.ConsultedAt))
		}
		return json.NewEncoder(f.out).Encode(out)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(f.out, "Historial vacío")
		return err
	}
	tw := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDNI\tNOMBRE\tCONSULTADO")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Record.ID, e.Record.FullName,
			e.ConsultedAt.UTC().Format(handler.TimestampLayout))
	}
	return tw.Flush()
}

func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
