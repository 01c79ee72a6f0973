package repository

import (
	"backend/models"
	"database/sql"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
)

// GenerateAssetPublicID builds the public identifier for an uploaded file,
// in the form "folder/unixtime-basename" without the file extension.
func GenerateAssetPublicID(folder, filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ReplaceAll(base, " ", "_")
	if folder == "" {
		return fmt.Sprintf("%d-%s", time.Now().Unix(), base)
	}
	return fmt.Sprintf("%s/%d-%s", strings.Trim(folder, "/"), time.Now().Unix(), base)
}

// GenerateRandomCode returns a short reference code like "KD48213", used for
// report reference numbers.
func GenerateRandomCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	prefix := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])
	number := rng.Intn(90000) + 10000

	return fmt.Sprintf("%s%d", prefix, number)
}

// FetchProject retrieves a project owned by the given user. Ownership is
// enforced in the query so a wrong user gets sql.ErrNoRows, not data.
func FetchProject(db *sql.DB, projectID, userID int) (*models.Project, error) {
	query := `
		SELECT id, user_id, name, client, location, description, status,
		       COALESCE(start_date, ''), COALESCE(end_date, ''), created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`
	row := db.QueryRow(query, projectID, userID)

	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.Client,
		&project.Location,
		&project.Description,
		&project.Status,
		&project.StartDate,
		&project.EndDate,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project %d: %w", projectID, err)
	}
	return &project, nil
}

// FetchFloorsWithDoors loads every floor of one system in a project together
// with its doors, ordered by creation time. Doors are attached in a single
// second query instead of one query per floor.
func FetchFloorsWithDoors(db *sql.DB, projectID int, system string) ([]models.Floor, error) {
	floorQuery := `
		SELECT id, project_id, system, name, created_at, updated_at
		FROM floors
		WHERE project_id = $1 AND system = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.Query(floorQuery, projectID, system)
	if err != nil {
		return nil, fmt.Errorf("failed to query floors: %w", err)
	}
	defer rows.Close()

	var floors []models.Floor
	index := make(map[int]int)
	for rows.Next() {
		var floor models.Floor
		if err := rows.Scan(&floor.ID, &floor.ProjectID, &floor.System, &floor.Name, &floor.CreatedAt, &floor.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan floor: %w", err)
		}
		floor.Doors = []models.Door{}
		index[floor.ID] = len(floors)
		floors = append(floors, floor)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(floors) == 0 {
		return floors, nil
	}

	doorQuery := `
		SELECT d.id, d.floor_id, d.name, d.checkpoints, d.created_at, d.updated_at
		FROM doors d
		JOIN floors f ON d.floor_id = f.id
		WHERE f.project_id = $1 AND f.system = $2
		ORDER BY d.created_at ASC, d.id ASC
	`
	doorRows, err := db.Query(doorQuery, projectID, system)
	if err != nil {
		return nil, fmt.Errorf("failed to query doors: %w", err)
	}
	defer doorRows.Close()

	for doorRows.Next() {
		var door models.Door
		if err := doorRows.Scan(&door.ID, &door.FloorID, &door.Name, &door.Checkpoints, &door.CreatedAt, &door.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan door: %w", err)
		}
		if i, ok := index[door.FloorID]; ok {
			floors[i].Doors = append(floors[i].Doors, door)
		}
	}
	if err := doorRows.Err(); err != nil {
		return nil, err
	}

	return floors, nil
}

// FetchStocks loads the stock records of a project, optionally filtered by
// system, newest first.
func FetchStocks(db *sql.DB, projectID int, system string) ([]models.Stock, error) {
	query := `
		SELECT id, project_id, system, item_name, brand, model, unit, boq,
		       supplied_qty, installed_qty, attic_stock, remarks, created_at, updated_at
		FROM stocks
		WHERE project_id = $1
	`
	args := []interface{}{projectID}
	if system != "" {
		query += ` AND system = $2`
		args = append(args, system)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []models.Stock
	for rows.Next() {
		var stock models.Stock
		if err := rows.Scan(
			&stock.ID, &stock.ProjectID, &stock.System, &stock.ItemName,
			&stock.Brand, &stock.Model, &stock.Unit, &stock.BOQ,
			&stock.SuppliedQty, &stock.InstalledQty, &stock.AtticStock,
			&stock.Remarks, &stock.CreatedAt, &stock.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	return stocks, rows.Err()
}
