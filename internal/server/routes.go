package server

import "net/http"

// Routes registers the API handlers behind the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/distance", s.HandleDistance)
	mux.HandleFunc("/api/centroid", s.HandleCentroid)
	mux.HandleFunc("/api/cluster", s.HandleCluster)
	mux.HandleFunc("/api/within", s.HandleWithin)
	mux.HandleFunc("/api/encode", s.HandleEncode)
	mux.HandleFunc("/api/decode", s.HandleDecode)
	mux.HandleFunc("/api/fences", s.HandleFences)
	mux.HandleFunc("/api/address", s.HandleAddress)
	mux.HandleFunc("/api/coordinates", s.HandleCoordinates)

	return RequestLogger(mux)
}
