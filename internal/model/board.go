package model

import "encoding/json"

const (
	Rows    = 7
	Columns = 6
)

// ChipType distinguishes the two players' pieces.
type ChipType string

const (
	ChipNone   ChipType = ""
	ChipFirst  ChipType = "first"
	ChipSecond ChipType = "second"
)

// Other returns the chip type held by the opponent of a player holding c.
func (c ChipType) Other() ChipType {
	if c == ChipFirst {
		return ChipSecond
	}
	return ChipFirst
}

// ChipLocation is a zero-indexed board coordinate.
type ChipLocation struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Board is a fixed ROWS x COLUMNS grid stored row-major. The zero value is
// an empty board. Row 0 is the top of the grid; row Rows-1 is the bottom,
// where gravity settles a dropped chip.
type Board struct {
	cells [Rows * Columns]ChipType
}

func index(row, column int) int { return row*Columns + column }

// At returns the chip at (row, column); ChipNone means the cell is empty.
func (b *Board) At(row, column int) ChipType {
	return b.cells[index(row, column)]
}

// Set places a chip at (row, column), overwriting whatever was there.
func (b *Board) Set(row, column int, c ChipType) {
	b.cells[index(row, column)] = c
}

// LowestEmptyRow returns the largest row index in a column whose cell is
// empty (gravity settles at the bottom), or -1 if the column is full.
func (b *Board) LowestEmptyRow(column int) int {
	for row := Rows - 1; row >= 0; row-- {
		if b.At(row, column) == ChipNone {
			return row
		}
	}
	return -1
}

// IsFull reports whether every cell is occupied.
func (b *Board) IsFull() bool {
	for _, c := range b.cells {
		if c == ChipNone {
			return false
		}
	}
	return true
}

// boardWire is the stable nullable-grid JSON representation of a Board,
// matching the wire/storage field ordering (rows outer, columns inner).
type boardWire [][]*ChipType

func (b Board) MarshalJSON() ([]byte, error) {
	grid := make(boardWire, Rows)
	for r := 0; r < Rows; r++ {
		row := make([]*ChipType, Columns)
		for c := 0; c < Columns; c++ {
			chip := b.At(r, c)
			if chip != ChipNone {
				v := chip
				row[c] = &v
			}
		}
		grid[r] = row
	}
	return json.Marshal(grid)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var grid boardWire
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	var out Board
	for r := 0; r < Rows && r < len(grid); r++ {
		for c := 0; c < Columns && c < len(grid[r]); c++ {
			if grid[r][c] != nil {
				out.Set(r, c, *grid[r][c])
			}
		}
	}
	*b = out
	return nil
}
