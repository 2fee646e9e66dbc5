package handler

import (
	"errors"
	"fmt"
	"net/http"

	"padron/internal/identity/registry"
)

const (
	MsgSuccess       = "Consulta exitosa"
	MsgInvalidFormat = "El DNI debe tener 8 dígitos numéricos"
	MsgMalformedBody = "El cuerpo de la solicitud no es un JSON válido"
	MsgUnreachable   = "No se pudo conectar con el registro de identidad"
	MsgTimeout       = "El registro de identidad no respondió a tiempo"
	MsgEmptyResponse = "El registro de identidad respondió sin datos: no se recibieron datos"
	MsgInternal      = "Error interno al consultar el DNI"

	MsgResponseTooLarge = "La respuesta del registro de identidad excede el tamaño permitido"
)

// Translate maps a lookup failure to its HTTP status and user-facing message.
func Translate(err error) (int, string) {
	lookupErr, ok := registry.AsLookupError(err)
	if !ok {
		return http.StatusInternalServerError, MsgInternal
	}
	switch lookupErr.Kind {
	case registry.KindInvalidFormat:
		return http.StatusBadRequest, MsgInvalidFormat
	case registry.KindUpstreamRejected:
		status := http.StatusBadGateway
		if lookupErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		return status, rejectedMessage(lookupErr)
	case registry.KindUpstreamUnreachable:
		if lookupErr.Timeout() {
			return http.StatusGatewayTimeout, MsgTimeout
		}
		return http.StatusBadGateway, MsgUnreachable
	case registry.KindUpstreamEmptyResponse:
		if errors.Is(lookupErr, registry.ErrResponseTooLarge) {
			return http.StatusBadGateway, MsgResponseTooLarge
		}
		return http.StatusBadGateway, MsgEmptyResponse
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

func rejectedMessage(e *registry.LookupError) string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("El registro de identidad rechazó la consulta: %d %s", e.StatusCode, text)
}
