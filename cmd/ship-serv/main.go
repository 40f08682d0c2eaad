// Command ship-serv is a reference stub state-history producer: it serves
// a fixed schema document, accepts the three wire request types (status,
// blocks, blocks ack; a frame with any other tag, quit included, ends the
// connection), and streams synthetic get_blocks_result_v1 messages back. It is grounded on
// examples/ship-serv.rs, translated from tokio-tungstenite onto
// gorilla/websocket and gorilla/mux (the teacher's own HTTP stack).
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/wire"
)

const schemaDocument = `{"version":"eosio::abi/1.1","contract":"eosio"}`

const contract = "eosio"

// statusResponse returns the fixed get_status_result_v0 this stub answers
// every status request with; its block ids come from wire.GenBlockID, the
// port of ship-serv.rs's gen_block_id.
func statusResponse() *wire.StatusResultV0 {
	chainID := "00a7a47738ccf44cd09f38a24aed9d95c0d650d29dd23670ffaa75c483c92b44"
	return &wire.StatusResultV0{
		Head:                 wire.BlockPosition{BlockNum: 10, BlockID: wire.GenBlockID(10)},
		LastIrreversible:     wire.BlockPosition{BlockNum: 8, BlockID: wire.GenBlockID(8)},
		TraceBeginBlock:      0,
		TraceEndBlock:        2,
		ChainStateBeginBlock: 0,
		ChainStateEndBlock:   2,
		ChainID:              &chainID,
	}
}

// genBlock synthesizes a get_blocks_result_v1 for blockNum, grounded on
// ship-serv.rs's gen_block. The original swaps its block_num/end_block
// arguments at the call site, leaving this_block stuck at a constant
// value across a whole streamed range; that is a bug in a throwaway test
// stub, not a protocol behavior, so this port advances this_block with
// blockNum as the field names say.
func genBlock(blockNum, headBlockNum uint32) *wire.BlocksResultV1 {
	header := wire.BlockHeader{
		Timestamp:        "2018-06-01T12:00:00",
		Producer:         "ship_serv",
		Confirmed:        0,
		TransactionMroot: "0000000000000000000000000000000000000000000000000000000000000000",
		ActionMroot:      "747d103e24c96deb1beebc13eb31f7c2188126946c8677dfd1691af9f9c03ab1",
		ScheduleVersion:  0,
	}
	if blockNum == 1 {
		header.Previous = "0000000000000000000000000000000000000000000000000000000000000000"
	} else {
		header.Previous = wire.GenBlockID(blockNum - 1)
	}

	block := &wire.SignedBlockV1{
		SignedBlockHeader: wire.SignedBlockHeader{
			BlockHeader:       header,
			ProducerSignature: "SIG_K1_111111111111111111111111111111111111111111111111111111111111111116uk5ne",
		},
		PruneState: 0,
	}

	var prevBlock *wire.BlockPosition
	if blockNum > 1 {
		prevBlock = &wire.BlockPosition{BlockNum: blockNum - 1, BlockID: wire.GenBlockID(blockNum - 1)}
	}

	emptyArray := "5b5d" // hex for "[]" — no traces/deltas in this stub producer
	return &wire.BlocksResultV1{
		Head:             wire.BlockPosition{BlockNum: headBlockNum, BlockID: wire.GenBlockID(headBlockNum)},
		LastIrreversible: wire.BlockPosition{BlockNum: headBlockNum, BlockID: wire.GenBlockID(headBlockNum)},
		ThisBlock:        &wire.BlockPosition{BlockNum: blockNum, BlockID: wire.GenBlockID(blockNum)},
		PrevBlock:        prevBlock,
		Block:            &wire.SignedBlock{Value: block},
		Traces:           &emptyArray,
		Deltas:           &emptyArray,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func serveShip(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ship-serv] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	peer := conn.RemoteAddr()
	log.Printf("[ship-serv] new connection: %s", peer)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(schemaDocument)); err != nil {
		log.Printf("[ship-serv] send schema failed: %v", err)
		return
	}

	c, err := codec.New(codec.NewReferenceEngine(), contract, schemaDocument)
	if err != nil {
		log.Printf("[ship-serv] codec bind failed: %v", err)
		return
	}
	defer c.Destroy()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[ship-serv] connection closed: %v", err)
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		jsonText, err := c.Decode(contract, "request", data)
		if err != nil {
			log.Printf("[ship-serv] decode request failed: %v", err)
			return
		}
		req, err := wire.DecodeRequest(jsonText)
		if err != nil {
			log.Printf("[ship-serv] unrecognized request: %v", err)
			return
		}

		switch v := req.(type) {
		case *wire.StatusRequestV0:
			if err := sendResult(conn, c, statusResponse()); err != nil {
				log.Printf("[ship-serv] send status failed: %v", err)
				return
			}
		case *wire.BlocksRequestV0:
			windowEnd := v.StartBlockNum + v.MaxMessagesInFlight
			if v.MaxMessagesInFlight == 0 {
				windowEnd = v.EndBlockNum
			}
			for current := v.StartBlockNum; current < windowEnd && current < v.EndBlockNum; current++ {
				if err := sendResult(conn, c, genBlock(current, v.EndBlockNum)); err != nil {
					log.Printf("[ship-serv] send block failed: %v", err)
					return
				}
			}
		case *wire.BlocksACKRequestV0:
			log.Printf("[ship-serv] ack: %d messages", v.NumMessages)
		default:
			log.Printf("[ship-serv] unhandled request type %T", req)
		}
	}
}

func sendResult(conn *websocket.Conn, c interface {
	Encode(contract, typeName string, jsonText []byte) ([]byte, error)
}, result wire.Result) error {
	jsonText, err := wire.EncodeResult(result)
	if err != nil {
		return err
	}
	wireBytes, err := c.Encode(contract, "result", jsonText)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, wireBytes)
}

// bearerAuth optionally gates connections behind a JWT bearer token,
// adapted from internal/webhooks.AuthMiddleware's HMAC JWT validation.
// Enabled only when SHIP_SERV_JWT_SECRET is set.
func bearerAuth(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	if len(secret) == 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenStr == "" {
			http.Error(w, `{"error":"missing Authorization header"}`, http.StatusUnauthorized)
			return
		}
		token, err := jwtlib.Parse(tokenStr, func(t *jwtlib.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func main() {
	listenAddr := "0.0.0.0:9999"
	if len(os.Args) > 1 {
		listenAddr = os.Args[1]
	}

	var jwtSecret []byte
	if v := os.Getenv("SHIP_SERV_JWT_SECRET"); v != "" {
		jwtSecret = []byte(v)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.HandleFunc("/", bearerAuth(jwtSecret, serveShip))

	log.Printf("[ship-serv] listening on %s", listenAddr)
	if err := http.ListenAndServe(listenAddr, r); err != nil {
		log.Fatalf("ship-serv: %v", err)
	}
}
