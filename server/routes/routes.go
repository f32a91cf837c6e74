package routes

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/engine"
)

type columnSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type createTableReq struct {
	Name    string       `json:"name"`
	Columns []columnSpec `json:"columns"`
	IndexOn string       `json:"indexOn"`
}

type insertRowReq struct {
	Values []any `json:"values"`
}

func SetupRoutes(router fiber.Router, eng *engine.Engine) {
	router.Post("/tables", func(c *fiber.Ctx) error {
		var req createTableReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		schema, err := buildSchema(req.Columns)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if _, err := eng.CreateTable(req.Name, schema, req.IndexOn); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "created", "table": req.Name})
	})

	router.Post("/tables/:table/rows", func(c *fiber.Ctx) error {
		var req insertRowReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		table, err := eng.Catalog().GetTableByName(c.Params("table"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}

		values, err := buildValues(req.Values, table.Schema)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if err := eng.InsertRow(table.Name, values); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "inserted"})
	})

	router.Get("/tables/:table/rows", func(c *fiber.Ctx) error {
		rows, err := eng.ScanTable(c.Params("table"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"rows": renderRows(rows)})
	})

	router.Get("/tables/:table/rows/:key", func(c *fiber.Ctx) error {
		key, err := strconv.ParseInt(c.Params("key"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key must be an integer"})
		}

		row, found, err := eng.GetByKey(c.Params("table"), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "row not found"})
		}
		return c.JSON(fiber.Map{"row": renderRow(row)})
	})

	router.Delete("/tables/:table/rows/:key", func(c *fiber.Ctx) error {
		key, err := strconv.ParseInt(c.Params("key"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key must be an integer"})
		}

		deleted, err := eng.DeleteByKey(c.Params("table"), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "deleted", "count": deleted})
	})
}

func buildSchema(specs []columnSpec) (*catalog.Schema, error) {
	columns := make([]catalog.Column, len(specs))
	for i, spec := range specs {
		switch spec.Type {
		case "int":
			columns[i] = catalog.Column{Name: spec.Name, Type: catalog.IntegerType}
		case "varchar":
			columns[i] = catalog.Column{Name: spec.Name, Type: catalog.VarcharType}
		default:
			return nil, fmt.Errorf("unsupported column type %q", spec.Type)
		}
	}
	return catalog.NewSchema(columns...), nil
}

func buildValues(raw []any, schema *catalog.Schema) ([]catalog.Value, error) {
	if len(raw) != schema.ColumnCount() {
		return nil, fmt.Errorf("expected %d values, got %d", schema.ColumnCount(), len(raw))
	}

	values := make([]catalog.Value, len(raw))
	for i, v := range raw {
		switch schema.Columns[i].Type {
		case catalog.IntegerType:
			num, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("column %q expects an integer", schema.Columns[i].Name)
			}
			values[i] = catalog.NewIntValue(int64(num))
		default:
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %q expects a string", schema.Columns[i].Name)
			}
			values[i] = catalog.NewVarcharValue(str)
		}
	}
	return values, nil
}

func renderRows(rows []*catalog.Tuple) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = renderRow(row)
	}
	return out
}

func renderRow(row *catalog.Tuple) []any {
	cells := make([]any, len(row.Values))
	for i, v := range row.Values {
		switch v.Type {
		case catalog.VarcharType:
			cells[i] = v.Str
		default:
			cells[i] = v.Int
		}
	}
	return cells
}
