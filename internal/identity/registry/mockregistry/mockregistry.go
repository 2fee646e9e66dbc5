// Package mockregistry serves deterministic identity-registry payloads for
// local development and tests. Records are derived from the DNI digits so the
// same DNI always yields the same person. Even DNIs answer with camel-style
// keys and odd DNIs with snake-style keys, so both naming conventions are
// exercised end to end.
package mockregistry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"padron/pkg/domain"
)

// NotFoundPrefix marks DNIs the mock reports as unknown (HTTP 404).
const NotFoundPrefix = "0000"

var (
	firstNames = []string{"CARLOS", "MARIA ELENA", "JOSE LUIS", "ROSA", "JUAN", "ANA LUCIA", "PEDRO", "CARMEN", "LUIS ALBERTO", "SOFIA"}
	surnames   = []string{"MENDOZA", "QUISPE", "FLORES", "GARCIA", "RODRIGUEZ", "HUAMAN", "SANCHEZ", "TORRES", "RAMIREZ", "SILVA"}
	districts  = []string{"MIRAFLORES", "SAN ISIDRO", "SURCO", "LINCE", "BARRANCO", "JESUS MARIA", "BREÑA", "LA MOLINA", "SAN BORJA", "MAGDALENA"}
	statuses   = []string{"SOLTERO", "CASADO", "VIUDO", "DIVORCIADO"}
)

// Handler answers GET ?<queryParam>=<dni>. When token is non-empty, requests
// must present it in one of the credential headers the registry client sends.
func Handler(queryParam, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
			return
		}
		if token != "" && !authorized(r, token) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}

		dni := r.URL.Query().Get(queryParam)
		if !domain.Validate(dni) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "dni invalido"})
			return
		}
		if strings.HasPrefix(dni, NotFoundPrefix) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		record, err := Record(dni)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "dni invalido"})
			return
		}
		writeJSON(w, http.StatusOK, record)
	})
}

// Record returns the deterministic payload for dni. It fails with
// domain.ErrInvalidDNI unless dni is exactly 8 digits.
func Record(dni string) (map[string]any, error) {
	id, err := domain.ParseDNI(dni)
	if err != nil {
		return nil, err
	}
	d := digits(id)
	if d[7]%2 == 0 {
		return map[string]any{
			"nombres":         firstNames[d[0]],
			"apellidoPaterno": surnames[d[1]],
			"apellidoMaterno": surnames[d[2]],
			"fechaNacimiento": birthDate(d),
			"sexo":            sex(d),
			"estadoCivil":     statuses[d[3]%len(statuses)],
			"direccion":       address(d),
			"distrito":        districts[d[4]],
			"provincia":       "LIMA",
			"departamento":    "LIMA",
		}, nil
	}
	return map[string]any{
		"nombres":            firstNames[d[0]],
		"apellido_paterno":   surnames[d[1]],
		"apellido_materno":   surnames[d[2]],
		"fecha_nacimiento":   birthDate(d),
		"sexo":               sex(d),
		"estado_civil":       statuses[d[3]%len(statuses)],
		"direccion_completa": address(d),
		"distrito":           districts[d[4]],
		"provincia":          "LIMA",
		"departamento":       "LIMA",
	}, nil
}

func digits(id domain.DNI) [8]int {
	var d [8]int
	for i, c := range id.String() {
		d[i] = int(c - '0')
	}
	return d
}

func birthDate(d [8]int) string {
	year := 1950 + d[5]*5 + d[6]
	month := d[6] + 1
	day := d[7]*2 + 1
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func sex(d [8]int) string {
	if d[0]%2 == 0 {
		return "M"
	}
	return "F"
}

func address(d [8]int) string {
	return "JR. " + surnames[d[5]] + " " + fmt.Sprintf("%03d", d[6]*100+d[7]*10+d[4])
}

func authorized(r *http.Request, token string) bool {
	return r.Header.Get("Authorization") == "Bearer "+token ||
		r.Header.Get("X-Api-Key") == token ||
		r.Header.Get("X-Auth-Token") == token
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
