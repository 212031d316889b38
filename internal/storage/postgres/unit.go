package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// ErrUnitExists is returned when creating a unit whose id is already stored.
var ErrUnitExists = errors.New("unit already exists")

// UnitRepository persists units and their health in PostgreSQL.
// It implements unit.Repository.
type UnitRepository struct {
	db *pgxpool.Pool
}

var _ unit.Repository = (*UnitRepository)(nil)

// NewUnitRepository creates a UnitRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewUnitRepository(db *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{db: db}
}

// Get loads the unit with the given id.
//
// Postcondition: Returns the unit or an error wrapping unit.ErrUnitNotFound.
func (r *UnitRepository) Get(ctx context.Context, id string) (*unit.Unit, error) {
	var u unit.Unit
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_player_id, definition_id, lifeform_category_id,
		       weapon_grade_id, ranged_attack_type_id, figure_count,
		       damage_taken, ammo, skills
		FROM units WHERE id = $1`, id,
	).Scan(
		&u.ID, &u.OwnerPlayerID, &u.DefinitionID, &u.LifeformCategoryID,
		&u.WeaponGradeID, &u.RangedAttackTypeID, &u.FigureCount,
		&u.DamageTaken, &u.Ammo, &u.Skills,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("unit %q: %w", id, unit.ErrUnitNotFound)
		}
		return nil, fmt.Errorf("querying unit %q: %w", id, err)
	}
	if u.Skills == nil {
		u.Skills = map[string]int{}
	}
	return &u, nil
}

// Create inserts u.
//
// Precondition: u.ID must be non-empty; u.FigureCount >= 1.
// Postcondition: Returns ErrUnitExists on a duplicate id.
func (r *UnitRepository) Create(ctx context.Context, u *unit.Unit) error {
	if u.ID == "" {
		return errors.New("unit id must not be empty")
	}
	skills := u.Skills
	if skills == nil {
		skills = map[string]int{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO units
			(id, owner_player_id, definition_id, lifeform_category_id,
			 weapon_grade_id, ranged_attack_type_id, figure_count,
			 damage_taken, ammo, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.OwnerPlayerID, u.DefinitionID, u.LifeformCategoryID,
		u.WeaponGradeID, u.RangedAttackTypeID, u.FigureCount,
		u.DamageTaken, u.Ammo, skills,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("unit %q: %w", u.ID, ErrUnitExists)
		}
		return fmt.Errorf("inserting unit: %w", err)
	}
	return nil
}

// SaveAttack writes the damage taken and ammunition of attacker and defender
// in one transaction. A nil unit is skipped.
//
// Precondition: DamageTaken >= 0 and Ammo >= 0 on both units.
// Postcondition: on error the transaction is rolled back and neither row
// changes; a missing row yields an error wrapping unit.ErrUnitNotFound.
func (r *UnitRepository) SaveAttack(ctx context.Context, attacker, defender *unit.Unit) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, u := range []*unit.Unit{attacker, defender} {
			if u == nil {
				continue
			}
			if err := saveHealth(ctx, tx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveHealth(ctx context.Context, tx pgx.Tx, u *unit.Unit) error {
	tag, err := tx.Exec(ctx, `
		UPDATE units SET damage_taken = $2, ammo = $3, updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.DamageTaken, u.Ammo,
	)
	if err != nil {
		return fmt.Errorf("saving health of unit %q: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unit %q: %w", u.ID, unit.ErrUnitNotFound)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
