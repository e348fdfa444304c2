package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound           = errors.New("registro nao encontrado")
	ErrAlreadyExists      = errors.New("registro ja existe")
	ErrPermissionDenied   = errors.New("permissao negada")
	ErrUnavailable        = errors.New("servico indisponivel")
	ErrFailedPrecondition = errors.New("pre-condicao nao atendida")
	ErrTravada            = errors.New("quiniela em processamento")
	ErrLotada             = errors.New("quiniela atingiu o limite de participantes")
)

// TravaError carrega quem detém a trava de processamento da quiniela.
type TravaError struct {
	Responsavel string
	Desde       *time.Time
}

func (e *TravaError) Error() string {
	if e.Responsavel == "" {
		return ErrTravada.Error()
	}
	return fmt.Sprintf("%s por %s", ErrTravada.Error(), e.Responsavel)
}

func (e *TravaError) Is(target error) bool {
	return target == ErrTravada
}
