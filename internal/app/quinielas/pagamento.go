package quinielas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/marcelojr/quiniela/internal/domain"
)

const (
	tamanhoPrefixoNome = 10
	tamanhoPrefixoID   = 6
	tamanhoQRCode      = 256
)

var ErrPagamentoNaoConfigurado = fmt.Errorf("%w: dados de pagamento nao configurados", domain.ErrNotFound)

// Instrucoes reúne os dados de transferência e a referência que o usuário deve informar.
type Instrucoes struct {
	domain.ConfigPagamento
	Referencia string `json:"referencia"`
	Texto      string `json:"texto"`
}

// ReferenciaPagamento gera o código NOME-ID: até 10 letras do nome sem acentos e 6 do identificador.
func ReferenciaPagamento(nome, usuarioID string) string {
	base := strings.ToUpper(strings.ReplaceAll(slug.Make(nome), "-", ""))
	if len(base) > tamanhoPrefixoNome {
		base = base[:tamanhoPrefixoNome]
	}
	if base == "" {
		base = "QUINIELA"
	}

	id := strings.ToUpper(strings.TrimSpace(usuarioID))
	if len(id) > tamanhoPrefixoID {
		id = id[:tamanhoPrefixoID]
	}
	return base + "-" + id
}

func (s *Service) ObterConfigPagamento(ctx context.Context) (domain.ConfigPagamento, error) {
	cfg, err := s.pagamento.Obter(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ConfigPagamento{}, ErrPagamentoNaoConfigurado
		}
		return domain.ConfigPagamento{}, err
	}
	return cfg, nil
}

func (s *Service) SalvarConfigPagamento(ctx context.Context, cfg domain.ConfigPagamento) (domain.ConfigPagamento, error) {
	cfg.ID = domain.ConfigPagamentoID
	cfg.AtualizadoEm = s.clock.Agora()
	if err := s.pagamento.Salvar(ctx, cfg); err != nil {
		return domain.ConfigPagamento{}, err
	}
	return cfg, nil
}

func (s *Service) InstrucoesPagamento(ctx context.Context, usuario Usuario) (Instrucoes, error) {
	if strings.TrimSpace(usuario.ID) == "" {
		return Instrucoes{}, ErrUsuarioObrigatorio
	}
	cfg, err := s.ObterConfigPagamento(ctx)
	if err != nil {
		return Instrucoes{}, err
	}

	ref := ReferenciaPagamento(usuario.Nome, usuario.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "Banco: %s\n", cfg.Banco)
	fmt.Fprintf(&b, "Conta: %s\n", cfg.Conta)
	fmt.Fprintf(&b, "Beneficiario: %s\n", cfg.Beneficiario)
	if cfg.Telefone != "" {
		fmt.Fprintf(&b, "Telefone: %s\n", cfg.Telefone)
	}
	fmt.Fprintf(&b, "Referencia: %s", ref)

	return Instrucoes{ConfigPagamento: cfg, Referencia: ref, Texto: b.String()}, nil
}

// QRCodePagamento devolve um PNG com o texto das instruções.
func (s *Service) QRCodePagamento(ctx context.Context, usuario Usuario) ([]byte, error) {
	instrucoes, err := s.InstrucoesPagamento(ctx, usuario)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(instrucoes.Texto, qrcode.Medium, tamanhoQRCode)
	if err != nil {
		return nil, fmt.Errorf("pagamento: gerar qrcode: %w", err)
	}
	return png, nil
}
