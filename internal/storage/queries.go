package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types

type RealizedAppointmentRow struct {
	ID          string
	Data        string
	Valor       string
	Tipo        string
	ServicoNome string
	ClienteNome string
}

type StatusValueRow struct {
	Status string
	Valor  string
}

type CreateAppointmentParams struct {
	ID        string
	Data      string
	Valor     string
	Tipo      string
	Status    string
	ClienteID string
	ServicoID string
}

const upsertCliente = `
INSERT INTO clientes (id, nome) VALUES (?, ?)
ON CONFLICT(nome) DO NOTHING
`

const getClienteID = `SELECT id FROM clientes WHERE nome = ?`

// UpsertCliente returns the id of the client with the given name, creating it if needed.
func (q *Queries) UpsertCliente(ctx context.Context, id, nome string) (string, error) {
	if _, err := q.db.ExecContext(ctx, upsertCliente, id, nome); err != nil {
		return "", err
	}
	var out string
	err := q.db.QueryRowContext(ctx, getClienteID, nome).Scan(&out)
	return out, err
}

const upsertServico = `
INSERT INTO servicos (id, nome) VALUES (?, ?)
ON CONFLICT(nome) DO NOTHING
`

const getServicoID = `SELECT id FROM servicos WHERE nome = ?`

// UpsertServico returns the id of the service with the given name, creating it if needed.
func (q *Queries) UpsertServico(ctx context.Context, id, nome string) (string, error) {
	if _, err := q.db.ExecContext(ctx, upsertServico, id, nome); err != nil {
		return "", err
	}
	var out string
	err := q.db.QueryRowContext(ctx, getServicoID, nome).Scan(&out)
	return out, err
}

const createAppointment = `
INSERT INTO agendamentos (id, data, valor, tipo, status, cliente_id, servico_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateAppointment(ctx context.Context, arg CreateAppointmentParams) error {
	_, err := q.db.ExecContext(ctx, createAppointment,
		arg.ID,
		arg.Data,
		arg.Valor,
		arg.Tipo,
		arg.Status,
		arg.ClienteID,
		arg.ServicoID,
	)
	return err
}

const getRealizedAppointments = `
SELECT a.id, a.data, a.valor, a.tipo, s.nome, c.nome
FROM agendamentos a
JOIN servicos s ON s.id = a.servico_id
JOIN clientes c ON c.id = a.cliente_id
WHERE a.status = 'realizado' AND a.data >= ? AND a.data <= ?
ORDER BY a.data ASC, a.rowid ASC
`

func (q *Queries) GetRealizedAppointments(ctx context.Context, start, end string) ([]RealizedAppointmentRow, error) {
	rows, err := q.db.QueryContext(ctx, getRealizedAppointments, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RealizedAppointmentRow
	for rows.Next() {
		var i RealizedAppointmentRow
		if err := rows.Scan(&i.ID, &i.Data, &i.Valor, &i.Tipo, &i.ServicoNome, &i.ClienteNome); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStatusValues = `
SELECT status, valor FROM agendamentos
WHERE data >= ? AND data <= ?
`

func (q *Queries) GetStatusValues(ctx context.Context, start, end string) ([]StatusValueRow, error) {
	rows, err := q.db.QueryContext(ctx, getStatusValues, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatusValueRow
	for rows.Next() {
		var i StatusValueRow
		if err := rows.Scan(&i.Status, &i.Valor); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAppointmentStatus = `
UPDATE agendamentos SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

// UpdateAppointmentStatus returns the number of rows changed.
func (q *Queries) UpdateAppointmentStatus(ctx context.Context, status, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAppointmentStatus, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
