// Package client implements the TCP client for the rail-game server. It owns
// a single persistent connection and exposes one typed method per protocol
// action. Calls are serialized: one request/response pair is in flight at any
// time.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/MorozVladislav/Engine/protocol"
)

// Client is the game server client. The zero value is not usable; construct
// with New and call Connect before issuing requests.
type Client struct {
	host     string
	port     int
	timeout  time.Duration
	username string
	password string

	mu   sync.Mutex
	conn net.Conn
}

// New creates a client. timeout applies per call to both the send and the
// receive; zero means no deadline. username and password are defaults for
// Login and may be empty.
func New(host string, port int, timeout time.Duration, username, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		timeout:  timeout,
		username: username,
		password: password,
	}
}

// Connect dials the game server. Host and port must be set.
func (c *Client) Connect() error {
	if c.host == "" {
		return ErrHostMissing
	}
	if c.port == 0 {
		return ErrPortMissing
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close closes the connection if it is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// call sends one request and reads one response under the client mutex. A
// non-OK status is returned as *BadServerResponse with the decoded error
// message.
func (c *Client) call(action protocol.Action, body any) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", action, err)
		}
		payload = data
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := c.conn.Write(protocol.EncodeRequest(action, payload)); err != nil {
		return nil, fmt.Errorf("send %s: %w", action, err)
	}

	resp, err := protocol.ReadResponse(c.conn)
	if err != nil {
		return nil, fmt.Errorf("receive %s response: %w", action, err)
	}
	if resp.Status != protocol.OK {
		return nil, &BadServerResponse{Status: resp.Status, Message: resp.ErrorMessage()}
	}
	return resp, nil
}

// LoginOptions carries the optional LOGIN parameters. Zero values are omitted
// from the request body.
type LoginOptions struct {
	Name       string `json:"name"`
	Password   string `json:"password,omitempty"`
	Game       string `json:"game,omitempty"`
	NumPlayers int    `json:"num_players,omitempty"`
	NumTurns   int    `json:"num_turns,omitempty"`
}

// LoginResponse is the subset of the LOGIN response the bot needs.
type LoginResponse struct {
	Idx    string `json:"idx"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Town   struct {
		Idx int `json:"idx"`
	} `json:"town"`
}

// Login sends a LOGIN request. An empty opts.Name falls back to the username
// the client was constructed with; a missing name is an error before any
// bytes hit the wire. The password falls back the same way.
func (c *Client) Login(opts LoginOptions) (*LoginResponse, error) {
	if opts.Name == "" {
		opts.Name = c.username
	}
	if opts.Password == "" {
		opts.Password = c.password
	}
	if opts.Name == "" {
		return nil, ErrUsernameMissing
	}

	resp, err := c.call(protocol.Login, opts)
	if err != nil {
		return nil, err
	}
	var login LoginResponse
	if err := json.Unmarshal(resp.Body, &login); err != nil {
		return nil, fmt.Errorf("decode LOGIN response: %w", err)
	}
	return &login, nil
}

// Logout sends a LOGOUT request and closes the connection.
func (c *Client) Logout() error {
	_, err := c.call(protocol.Logout, nil)
	if closeErr := c.Close(); err == nil {
		err = closeErr
	}
	return err
}

// MoveTrain sends a MOVE request. speed is -1, 0 or 1; line_idx is the line
// the train should occupy on the next turn.
func (c *Client) MoveTrain(lineIdx, speed, trainIdx int) error {
	body := map[string]int{
		"line_idx":  lineIdx,
		"speed":     speed,
		"train_idx": trainIdx,
	}
	_, err := c.call(protocol.Move, body)
	return err
}

// Upgrade sends an UPGRADE request for the given post and train ids. Either
// list may be empty; nil slices are sent as empty arrays.
func (c *Client) Upgrade(posts, trains []int) error {
	if posts == nil {
		posts = []int{}
	}
	if trains == nil {
		trains = []int{}
	}
	body := map[string][]int{"posts": posts, "trains": trains}
	_, err := c.call(protocol.Upgrade, body)
	return err
}

// Turn sends a TURN request, advancing the game one tick.
func (c *Client) Turn() error {
	_, err := c.call(protocol.Turn, nil)
	return err
}

// PlayerInfo is the subset of the PLAYER response the bot needs.
type PlayerInfo struct {
	Idx    string `json:"idx"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Town   struct {
		Idx int `json:"idx"`
	} `json:"town"`
}

// Player sends a PLAYER request and returns the player record.
func (c *Client) Player() (*PlayerInfo, error) {
	resp, err := c.call(protocol.Player, nil)
	if err != nil {
		return nil, err
	}
	var player PlayerInfo
	if err := json.Unmarshal(resp.Body, &player); err != nil {
		return nil, fmt.Errorf("decode PLAYER response: %w", err)
	}
	return &player, nil
}

// GameInfo describes one game in the GAMES listing.
type GameInfo struct {
	Name       string `json:"name"`
	NumPlayers int    `json:"num_players"`
	NumTurns   int    `json:"num_turns"`
	State      int    `json:"state"`
}

// Games sends a GAMES request and returns the list of games on the server.
func (c *Client) Games() ([]GameInfo, error) {
	resp, err := c.call(protocol.Games, nil)
	if err != nil {
		return nil, err
	}
	var listing struct {
		Games []GameInfo `json:"games"`
	}
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, fmt.Errorf("decode GAMES response: %w", err)
	}
	return listing.Games, nil
}

// mapLayer requests a MAP layer and returns the raw JSON body so callers can
// both parse it and forward it to the visualizer verbatim.
func (c *Client) mapLayer(layer int) (json.RawMessage, error) {
	resp, err := c.call(protocol.Map, map[string]int{"layer": layer})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// MapStatic requests MAP layer 0: points and lines.
func (c *Client) MapStatic() (json.RawMessage, error) {
	return c.mapLayer(protocol.LayerStatic)
}

// MapDynamic requests MAP layer 1: posts, trains and ratings.
func (c *Client) MapDynamic() (json.RawMessage, error) {
	return c.mapLayer(protocol.LayerDynamic)
}

// MapCoordinates requests MAP layer 10: point coordinates for drawing.
func (c *Client) MapCoordinates() (json.RawMessage, error) {
	return c.mapLayer(protocol.LayerCoordinates)
}
