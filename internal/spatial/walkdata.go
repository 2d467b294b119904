package spatial

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/annel0/ro-zone/internal/vec"
)

// CellFlags свойства клетки
type CellFlags uint8

const (
	CellWalkable  CellFlags = 1 << iota
	CellSnipeable           // сквозь клетку можно стрелять
)

// MaxPathLength ограничение длины пути
const MaxPathLength = 32

// WalkData сетка проходимости карты
type WalkData struct {
	width  int
	height int
	cells  []CellFlags
	rng    *rand.Rand
}

// NewWalkData создаёт полностью проходимую карту
func NewWalkData(width, height int, seed uint64) *WalkData {
	wd := &WalkData{
		width:  width,
		height: height,
		cells:  make([]CellFlags, width*height),
		rng:    rand.New(rand.NewPCG(seed, seed+1)),
	}
	for i := range wd.cells {
		wd.cells[i] = CellWalkable | CellSnipeable
	}
	return wd
}

// Width ширина карты
func (wd *WalkData) Width() int { return wd.width }

// Height высота карты
func (wd *WalkData) Height() int { return wd.height }

// Bounds границы карты
func (wd *WalkData) Bounds() vec.Area {
	return vec.Area{MinX: 0, MinY: 0, MaxX: wd.width - 1, MaxY: wd.height - 1}
}

func (wd *WalkData) inBounds(p vec.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < wd.width && p.Y < wd.height
}

// Cell возвращает флаги клетки; за границей карты клетка непроходима
func (wd *WalkData) Cell(p vec.Vec2) CellFlags {
	if !wd.inBounds(p) {
		return 0
	}
	return wd.cells[p.Y*wd.width+p.X]
}

// SetCell задаёт флаги клетки
func (wd *WalkData) SetCell(p vec.Vec2, flags CellFlags) {
	if !wd.inBounds(p) {
		return
	}
	wd.cells[p.Y*wd.width+p.X] = flags
}

// SetWall делает клетку стеной
func (wd *WalkData) SetWall(p vec.Vec2) {
	wd.SetCell(p, 0)
}

// IsWalkable проверяет проходимость
func (wd *WalkData) IsWalkable(p vec.Vec2) bool {
	return wd.Cell(p)&CellWalkable != 0
}

// HasLineOfSight Брезенхэм от a до b, каждая промежуточная клетка должна пропускать выстрел
func (wd *WalkData) HasLineOfSight(a, b vec.Vec2) bool {
	if !wd.inBounds(a) || !wd.inBounds(b) {
		return false
	}

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		if wd.Cell(vec.Vec2{X: x, Y: y})&CellSnipeable == 0 {
			return false
		}
		if x == b.X && y == b.Y {
			return true
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// RandomWalkablePositionInArea выбирает случайную проходимую клетку
func (wd *WalkData) RandomWalkablePositionInArea(area vec.Area) vec.Vec2 {
	area = area.ClipTo(wd.Bounds())
	if area.IsEmpty() {
		return vec.Invalid
	}

	for attempt := 0; attempt < 20; attempt++ {
		p := vec.Vec2{
			X: area.MinX + wd.rng.IntN(area.Width()),
			Y: area.MinY + wd.rng.IntN(area.Height()),
		}
		if wd.IsWalkable(p) {
			return p
		}
	}

	// случайные попытки не помогли, ищем перебором
	for y := area.MinY; y <= area.MaxY; y++ {
		for x := area.MinX; x <= area.MaxX; x++ {
			p := vec.Vec2{X: x, Y: y}
			if wd.IsWalkable(p) {
				return p
			}
		}
	}
	return vec.Invalid
}

// FindPath строит жадный путь по прямой: на каждом шаге пробуется диагональ,
// затем смещение по одной оси. Путь длиннее MaxPathLength не строится.
func (wd *WalkData) FindPath(from, to vec.Vec2, rangeToTarget int) []vec.Vec2 {
	if !wd.IsWalkable(from) {
		return nil
	}
	if from.InRange(to, rangeToTarget) {
		return nil
	}

	path := make([]vec.Vec2, 0, 8)
	cur := from
	for len(path) < MaxPathLength {
		next, ok := wd.nextStep(cur, to)
		if !ok {
			return nil
		}
		path = append(path, next)
		cur = next
		if cur.InRange(to, rangeToTarget) {
			return path
		}
	}
	return nil
}

func (wd *WalkData) nextStep(cur, to vec.Vec2) (vec.Vec2, bool) {
	step := cur.StepToward(to)
	if wd.IsWalkable(step) {
		return step, true
	}

	if step.X != cur.X && step.Y != cur.Y {
		alongX := vec.Vec2{X: step.X, Y: cur.Y}
		if wd.IsWalkable(alongX) {
			return alongX, true
		}
		alongY := vec.Vec2{X: cur.X, Y: step.Y}
		if wd.IsWalkable(alongY) {
			return alongY, true
		}
	}
	return cur, false
}

// LoadWalkData читает карту из текстового формата:
// первая строка "ширина высота", затем строки клеток:
// '.': проходимо, '#': стена, '~': непроходимо, но простреливается.
func LoadWalkData(r io.Reader, seed uint64) (*WalkData, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("walk data: пустой файл")
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(sc.Text()), "%d %d", &w, &h); err != nil {
		return nil, fmt.Errorf("walk data: заголовок: %w", err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("walk data: некорректный размер %dx%d", w, h)
	}

	wd := NewWalkData(w, h, seed)
	for y := 0; y < h; y++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("walk data: ожидалось %d строк, прочитано %d", h, y)
		}
		line := sc.Text()
		for x := 0; x < w; x++ {
			c := byte('#')
			if x < len(line) {
				c = line[x]
			}
			p := vec.Vec2{X: x, Y: y}
			switch c {
			case '.':
				wd.SetCell(p, CellWalkable|CellSnipeable)
			case '~':
				wd.SetCell(p, CellSnipeable)
			default:
				wd.SetWall(p)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("walk data: %w", err)
	}
	return wd, nil
}

// LoadWalkDataFile читает карту из файла, .gz распаковывается на лету
func LoadWalkDataFile(path string, seed uint64) (*WalkData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("walk data %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	wd, err := LoadWalkData(r, seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wd, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
