package handler

import (
	"time"

	"padron/internal/identity/models"
)

// TimestampLayout is RFC 3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ConsultRequest is the optional body of POST /identity/{id}.
type ConsultRequest struct {
	Token string `json:"token"`
}

// PersonResponse is the wire form of a person record. Field names follow the
// registry's Spanish vocabulary.
type PersonResponse struct {
	DNI             string  `json:"dni"`
	Nombres         string  `json:"nombres"`
	ApellidoPaterno string  `json:"apellidoPaterno"`
	ApellidoMaterno string  `json:"apellidoMaterno"`
	NombreCompleto  string  `json:"nombreCompleto"`
	FechaNacimiento *string `json:"fechaNacimiento"`
	Sexo            *string `json:"sexo"`
	EstadoCivil     *string `json:"estadoCivil"`
	Direccion       *string `json:"direccion"`
	Distrito        *string `json:"distrito"`
	Provincia       *string `json:"provincia"`
	Departamento    *string `json:"departamento"`
	ConsultadoAt    string  `json:"consultado_at"`
}

// FromRecord builds the wire form of record, stamped with consultedAt in UTC.
func FromRecord(record *models.PersonRecord, consultedAt time.Time) PersonResponse {
	return PersonResponse{
		DNI:             record.ID,
		Nombres:         record.FirstNames,
		ApellidoPaterno: record.PaternalSurname,
		ApellidoMaterno: record.MaternalSurname,
		NombreCompleto:  record.FullName,
		FechaNacimiento: record.BirthDate,
		Sexo:            record.Sex,
		EstadoCivil:     record.MaritalStatus,
		Direccion:       record.Address,
		Distrito:        record.District,
		Provincia:       record.Province,
		Departamento:    record.Department,
		ConsultadoAt:    consultedAt.UTC().Format(TimestampLayout),
	}
}
