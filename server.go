package sonar

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"
)

// Server serves a Thinger over HTTP.  "/" is the Thinger's own ServeHTTP, if
// it has one, and "/ws/" is the websocket onto the Thinger's bus.
type Server struct {
	http.Server
	thinger  Thinger
	bus      *Bus
	injector *Injector
	handler  func(*Packet)
	user     string
	passwd   string
}

func NewServer(thinger Thinger) *Server {
	s := &Server{thinger: thinger}

	s.handler = dispatch(thinger)
	s.bus = NewBus("server bus", s.connect, nil)
	s.bus.Handle(s.handler)
	s.injector = NewInjector("server injector", s.bus)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", s.basicAuth(s.serveWebSocket))
	if h, ok := thinger.(http.Handler); ok {
		mux.HandleFunc("/", s.basicAuth(h.ServeHTTP))
	}
	s.Handler = mux

	return s
}

// BasicAuth protects the server's handlers with HTTP basic authentication.
// An empty user disables it.
func (s *Server) BasicAuth(user, passwd string) {
	s.user, s.passwd = user, passwd
}

// connect sends the Thinger's state to a newly plugged-in socket
func (s *Server) connect(sock Socketer) {
	pkt := &Packet{bus: s.bus, src: sock}
	s.handler(pkt.Marshal(&ThingMsg{Path: "attached"}))
}

// DialWebSocket keeps a websocket connection to a hub at rawURL, announcing
// the Thinger on each (re)connect
func (s *Server) DialWebSocket(user, passwd, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	ws := newWebSocket(u, "", s.bus)
	go ws.Dial(user, passwd, s.thinger.Announce())
	return nil
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ws := newWebSocket(r.URL, r.RemoteAddr, s.bus)
	serv := websocket.Server{Handler: websocket.Handler(ws.serve)}
	serv.ServeHTTP(w, r)
}

// Run the Thinger; this doesn't return
func (s *Server) Run() {
	s.thinger.Run(s.injector)
}

// RunContext runs the Thinger until ctx is done
func (s *Server) RunContext(ctx context.Context) {
	runContext(ctx, s.thinger, s.injector)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {

		// skip basic authentication if no user
		if s.user == "" {
			next.ServeHTTP(writer, r)
			return
		}

		ruser, rpasswd, ok := r.BasicAuth()

		if ok {
			userHash := sha256.Sum256([]byte(s.user))
			passHash := sha256.Sum256([]byte(s.passwd))
			ruserHash := sha256.Sum256([]byte(ruser))
			rpassHash := sha256.Sum256([]byte(rpasswd))

			// https://www.alexedwards.net/blog/basic-authentication-in-go
			userMatch := (subtle.ConstantTimeCompare(userHash[:], ruserHash[:]) == 1)
			passMatch := (subtle.ConstantTimeCompare(passHash[:], rpassHash[:]) == 1)

			if userMatch && passMatch {
				next.ServeHTTP(writer, r)
				return
			}
		}

		writer.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		http.Error(writer, "Unauthorized", http.StatusUnauthorized)
	})
}
