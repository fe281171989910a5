package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bank-backoffice/internal/model"
)

const customerColumns = `id, first_name, last_name, street, postal_code, city, status`

// PostgresCustomers хранит клиентов в таблице customers.
type PostgresCustomers struct {
	db *Postgres
}

// Insert сохраняет клиента и возвращает сгенерированный идентификатор.
func (r *PostgresCustomers) Insert(ctx context.Context, c *model.Customer) (int64, error) {
	var id int64
	err := r.db.withRetry(ctx, func() error {
		return r.db.pool.QueryRow(ctx,
			`INSERT INTO customers (first_name, last_name, street, postal_code, city, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			c.FirstName, c.LastName, c.Street, c.PostalCode, c.City, string(c.Status),
		).Scan(&id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: customer %s %s", ErrDuplicate, c.FirstName, c.LastName)
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

// Update изменяет имя и адрес клиента. Статус не затрагивается.
func (r *PostgresCustomers) Update(ctx context.Context, c *model.Customer) error {
	var affected int64
	err := r.db.withRetry(ctx, func() error {
		tag, err := r.db.pool.Exec(ctx,
			`UPDATE customers
			 SET first_name = $2, last_name = $3, street = $4, postal_code = $5, city = $6
			 WHERE id = $1`,
			c.ID, c.FirstName, c.LastName, c.Street, c.PostalCode, c.City,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer %d", ErrDuplicate, c.ID)
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: customer %d", ErrNotFound, c.ID)
	}
	return nil
}

// SetUnenrolled переводит клиента в статус UNENROLLED.
func (r *PostgresCustomers) SetUnenrolled(ctx context.Context, id int64) error {
	var affected int64
	err := r.db.withRetry(ctx, func() error {
		tag, err := r.db.pool.Exec(ctx,
			`UPDATE customers SET status = $2 WHERE id = $1`,
			id, string(model.CustomerStatusUnenrolled),
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("unenroll customer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	return nil
}

// FindByID возвращает клиента или nil, если клиента нет.
func (r *PostgresCustomers) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.withRetry(ctx, func() error {
		return scanCustomer(r.db.pool.QueryRow(ctx,
			`SELECT `+customerColumns+` FROM customers WHERE id = $1`,
			id,
		), &c)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

// ExistsByNameAddress проверяет наличие клиента с таким именем и адресом в любом статусе.
func (r *PostgresCustomers) ExistsByNameAddress(ctx context.Context, key model.NameAddress) (bool, error) {
	var exists bool
	err := r.db.withRetry(ctx, func() error {
		return r.db.pool.QueryRow(ctx,
			`SELECT EXISTS(
			   SELECT 1 FROM customers
			   WHERE last_name = $1 AND first_name = $2 AND street = $3 AND postal_code = $4 AND city = $5
			 )`,
			key.LastName, key.FirstName, key.Street, key.PostalCode, key.City,
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

// ListByStatus возвращает клиентов со статусом status, отсортированных по фамилии и имени.
func (r *PostgresCustomers) ListByStatus(ctx context.Context, status model.CustomerStatus) ([]model.Customer, error) {
	return r.list(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE status = $1
		 ORDER BY last_name, first_name, id`,
		string(status),
	)
}

// ListAll возвращает всех клиентов, отсортированных по фамилии и имени.
func (r *PostgresCustomers) ListAll(ctx context.Context) ([]model.Customer, error) {
	return r.list(ctx,
		`SELECT ` + customerColumns + ` FROM customers
		 ORDER BY last_name, first_name, id`,
	)
}

func (r *PostgresCustomers) list(ctx context.Context, query string, args ...any) ([]model.Customer, error) {
	var res []model.Customer
	err := r.db.withRetry(ctx, func() error {
		res = nil

		rows, err := r.db.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c model.Customer
			if err := scanCustomer(rows, &c); err != nil {
				return fmt.Errorf("scan customer: %w", err)
			}
			res = append(res, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	return res, nil
}

func scanCustomer(row pgx.Row, c *model.Customer) error {
	var status string
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Street, &c.PostalCode, &c.City, &status); err != nil {
		return err
	}
	c.Status = model.CustomerStatus(status)
	return nil
}
