package engine

// PostType discriminates the functional overlay a point can host.
type PostType int

const (
	PostTown    PostType = 1
	PostMarket  PostType = 2
	PostStorage PostType = 3
)

// GoodsType is what a train carries.
type GoodsType int

const (
	GoodsNone    GoodsType = 0
	GoodsProduct GoodsType = 2
	GoodsArmor   GoodsType = 3
)

// EventType identifies server events attached to a town.
type EventType int

const (
	EventParasites EventType = 1
	EventHijackers EventType = 2
	EventRefugees  EventType = 4
	EventGameOver  EventType = 100
)

// Train speed values accepted by MOVE.
const (
	SpeedReverse = -1
	SpeedStop    = 0
	SpeedForward = 1
)

// Point is a node of the map graph. PostIdx is zero when the point hosts no
// post.
type Point struct {
	Idx     int `json:"idx"`
	PostIdx int `json:"post_idx"`
}

// Line is an undirected edge between two points. Length is both the shortest
// path weight and the number of integer positions a train crosses from
// Points[0] to Points[1]; the two meanings are inseparable.
type Line struct {
	Idx    int    `json:"idx"`
	Length int    `json:"length"`
	Points [2]int `json:"points"`
}

// Event is a server notice attached to a town.
type Event struct {
	Type           EventType `json:"type"`
	Tick           int       `json:"tick"`
	RefugeesNumber int       `json:"refugees_number"`
}

// Post is the header shared by every post variant.
type Post struct {
	Idx      int      `json:"idx"`
	Name     string   `json:"name"`
	PointIdx int      `json:"point_idx"`
	Type     PostType `json:"type"`
	Events   []Event  `json:"events"`
}

// Town is the player base. It consumes product proportional to population and
// spends armor on refugee events and upgrades. NextLevelPrice is nil at the
// maximum level.
type Town struct {
	Post
	PlayerIdx          string `json:"player_idx"`
	Population         int    `json:"population"`
	PopulationCapacity int    `json:"population_capacity"`
	Product            int    `json:"product"`
	ProductCapacity    int    `json:"product_capacity"`
	Armor              int    `json:"armor"`
	ArmorCapacity      int    `json:"armor_capacity"`
	Level              int    `json:"level"`
	NextLevelPrice     *int   `json:"next_level_price"`
	TrainCooldown      int    `json:"train_cooldown"`
}

// Market sells product, replenishing every tick.
type Market struct {
	Post
	Product         int `json:"product"`
	ProductCapacity int `json:"product_capacity"`
	Replenishment   int `json:"replenishment"`
}

// Storage sells armor, replenishing every tick.
type Storage struct {
	Post
	Armor         int `json:"armor"`
	ArmorCapacity int `json:"armor_capacity"`
	Replenishment int `json:"replenishment"`
}

// Train is a mobile agent. Position is an integer in [0, line.Length] on
// LineIdx; Speed is -1, 0 or 1. NextLevelPrice is nil at the maximum level.
type Train struct {
	Idx            int       `json:"idx"`
	PlayerIdx      string    `json:"player_idx"`
	LineIdx        int       `json:"line_idx"`
	Position       int       `json:"position"`
	Speed          int       `json:"speed"`
	Goods          int       `json:"goods"`
	GoodsCapacity  int       `json:"goods_capacity"`
	GoodsType      GoodsType `json:"goods_type"`
	Cooldown       int       `json:"cooldown"`
	Level          int       `json:"level"`
	NextLevelPrice *int      `json:"next_level_price"`
}

// Rating is a player's scoreboard entry from the dynamic layer.
type Rating struct {
	Idx    string `json:"idx"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// Reservation is the planner's intention record for one own train: the goods
// type it is out for, the amount it expects to pick up, the remaining trip
// length in ticks, and the planned route as a list of point ids.
type Reservation struct {
	GoodsType     GoodsType
	Expected      int
	TripRemaining int
	Route         []int
}

// Target returns the final point of the route, or -1 for an empty route.
func (r *Reservation) Target() int {
	if r == nil || len(r.Route) == 0 {
		return -1
	}
	return r.Route[len(r.Route)-1]
}

// Coordinate is a drawable point position from MAP layer 10.
type Coordinate struct {
	Idx int     `json:"idx"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}
