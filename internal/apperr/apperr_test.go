package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapsKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"missing column", MissingColumn("Número de pedido JMS"), http.StatusBadRequest, `O ficheiro Excel deve conter a coluna "Número de pedido JMS".`},
		{"empty workbook", EmptyWorkbook(), http.StatusBadRequest, "O arquivo está vazio ou não tem dados na primeira planilha."},
		{"size", SizeLimitExceeded(50), http.StatusRequestEntityTooLarge, "Ficheiro demasiado grande. Limite: 50 MB."},
		{"not found", NotFound("Registro não encontrado."), http.StatusNotFound, "Registro não encontrado."},
		{"conflict", Conflict("dup"), http.StatusConflict, "dup"},
		{"unauthorized", Unauthorized("nope"), http.StatusUnauthorized, "nope"},
		{"storage", Storage("Erro ao gravar em lote: x", errors.New("x")), http.StatusInternalServerError, "Erro ao gravar em lote: x"},
		{"wrapped", fmt.Errorf("outer: %w", InvalidInput("bad")), http.StatusBadRequest, "bad"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Erro interno do servidor."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := Status(tc.err)
			if code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, code)
			}
			if msg != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, msg)
			}
		})
	}
}

func TestIsKindAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("import: %w", Storage("falhou", cause))
	if !IsKind(err, KindStorageFailure) {
		t.Fatalf("expected storage kind")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("did not expect not-found kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}

func TestInvalidFormatMessage(t *testing.T) {
	err := InvalidFormat(errors.New("zip: not a valid zip file"))
	if err.Error() == "" || err.Message != "Erro ao ler o Excel: zip: not a valid zip file" {
		t.Fatalf("unexpected message %q", err.Message)
	}
}
