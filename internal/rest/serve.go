// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/fovlight/internal/frag"
	"github.com/mlnoga/fovlight/internal/hist"
)

// Server exposes fragment processing and histogram retrieval over HTTP.
// Fragments are the full set this server is responsible for; the aggregate
// endpoint reduces over all of them
type Server struct {
	Proc       *frag.Processor
	Fragments  []int
	MaxThreads int
}

func (s *Server) Run(addr string) error {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/process", s.postProcess)
			v1.GET("/histogram/aggregate", s.getAggregate)
			v1.GET("/histogram/:fragment", s.getHistogram)
			v1.POST("/restore", s.postRestore)
		}
	}
	return r.Run(addr)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

type processArgs struct {
	Fragments []int `json:"fragments"`
}

// Processes the requested fragments (default: all configured ones),
// streaming plain-text log output to the client while working
func (s *Server) postProcess(c *gin.Context) {
	var args processArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fragments := args.Fragments
	if len(fragments) == 0 {
		fragments = s.Fragments
	}

	logWriter := c.Writer
	logWriter.Header().Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	proc := s.Proc.WithLog(frag.NewSyncWriter(logWriter))
	err := frag.RunFragments(fragments, s.MaxThreads, proc.ProcessFragment)
	if err != nil {
		logWriter.WriteString("error: " + err.Error() + "\n")
	} else {
		logWriter.WriteString("done\n")
	}
	logWriter.(http.Flusher).Flush()
}

type fragmentURI struct {
	Fragment int `uri:"fragment" binding:"min=0"`
}

func (s *Server) getHistogram(c *gin.Context) {
	var uri fragmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h, err := s.Proc.PixelHistogram(uri.Fragment)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, frag.ErrHistogramNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	writeHistogram(c, h)
}

func (s *Server) getAggregate(c *gin.Context) {
	h, err := s.Proc.AggregatePixelHistogram(s.Fragments)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, frag.ErrHistogramNotFound) {
			status = http.StatusConflict // not all fragments have completed yet
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	writeHistogram(c, h)
}

func writeHistogram(c *gin.Context, h *hist.PixelHistogram) {
	rows := make([][]int64, h.Bits())
	for bit := 0; bit < h.Bits(); bit++ {
		rows[bit] = h.Row(bit)
	}
	c.JSON(http.StatusOK, gin.H{
		"bits":   h.Bits(),
		"bins":   hist.Bins,
		"counts": rows,
	})
}

type restoreArgs struct {
	Fragment int `json:"fragment" binding:"min=0"`
	Channel  int `json:"channel" binding:"min=0"`
	Z        int `json:"z" binding:"min=0"`
}

// Restores a single (fragment, channel, z) plane and returns it as a
// 16-bit grayscale TIFF
func (s *Server) postRestore(c *gin.Context) {
	var args restoreArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := s.Proc.ProcessedImage(args.Fragment, args.Channel, args.Z, nil)
	if err != nil {
		status := http.StatusInternalServerError
		var depErr *frag.DependencyError
		if errors.As(err, &depErr) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Writer.Header().Set("Content-Type", "image/tiff")
	c.Writer.WriteHeader(http.StatusOK)
	if err := f.WriteTIFF16(c.Writer); err != nil {
		c.Error(err)
	}
}
