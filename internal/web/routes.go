package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achildrenmile/oeradio-mcp/internal/availability"
	"github.com/achildrenmile/oeradio-mcp/internal/lookup"
	"github.com/achildrenmile/oeradio-mcp/internal/registry"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
	"github.com/achildrenmile/oeradio-mcp/internal/suggest"
	"github.com/achildrenmile/oeradio-mcp/internal/version"
)

// RevisionReader exposes the rebuild history to the info endpoint. Nil is
// allowed; the endpoint then omits revision data.
type RevisionReader interface {
	LatestPromoted(ctx context.Context) (*store.Revision, error)
}

// Deps bundles everything the route handlers need.
type Deps struct {
	Store     *store.Store
	Engine    *lookup.Engine
	Checker   *availability.Checker
	Generator *suggest.Generator
	Revisions RevisionReader
}

type batchLookupRequest struct {
	Callsigns []string `json:"callsigns" binding:"required"`
	LocalOnly bool     `json:"local_only"`
	NoCache   bool     `json:"no_cache"`
}

type batchAvailabilityRequest struct {
	Suffixes []string `json:"suffixes" binding:"required"`
	District int      `json:"district"`
}

type suggestRequest struct {
	Name              string  `json:"name" binding:"required"`
	PreferredDistrict int     `json:"preferred_district"`
	MaxResults        int     `json:"max_results"`
	ExcludeClub       bool    `json:"exclude_club"`
	MinPhoneticScore  float64 `json:"min_phonetic_score"`
}

type randomSuggestRequest struct {
	Count             int     `json:"count" binding:"required"`
	PreferredDistrict int     `json:"preferred_district"`
	ExcludeClub       bool    `json:"exclude_club"`
	MinPhoneticScore  float64 `json:"min_phonetic_score"`
}

// SetupRoutes configures all API endpoints.
func SetupRoutes(r *gin.RouterGroup, deps Deps) {
	// GET /lookup/:callsign - Resolve a callsign through the fallback chain.
	r.GET("/lookup/:callsign", func(c *gin.Context) {
		opts := lookup.Options{
			LocalOnly: boolQuery(c, "local_only"),
			NoCache:   boolQuery(c, "no_cache"),
		}
		res, err := deps.Engine.Lookup(c.Request.Context(), c.Param("callsign"), opts)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	// POST /lookup/batch - Resolve several callsigns with bounded concurrency.
	r.POST("/lookup/batch", func(c *gin.Context) {
		var req batchLookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		results, err := deps.Engine.LookupBatch(c.Request.Context(), req.Callsigns,
			lookup.Options{LocalOnly: req.LocalOnly, NoCache: req.NoCache})
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	// GET /availability/:suffix - Which districts still have this suffix free.
	r.GET("/availability/:suffix", func(c *gin.Context) {
		districts, ok := districtQuery(c)
		if !ok {
			return
		}
		res, err := deps.Checker.Check(c.Param("suffix"), districts)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	// POST /availability/batch - Check several suffixes at once.
	r.POST("/availability/batch", func(c *gin.Context) {
		var req batchAvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var districts []int
		if req.District != 0 {
			if !validDistrict(req.District) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "district must be a digit 1-9"})
				return
			}
			districts = []int{req.District}
		}
		results, err := deps.Checker.CheckMultiple(req.Suffixes, districts)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	// POST /suggest - Derive scored suffix candidates from a name.
	r.POST("/suggest", func(c *gin.Context) {
		var req suggestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.PreferredDistrict != 0 && !validDistrict(req.PreferredDistrict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_district must be a digit 1-9"})
			return
		}
		suggestions, err := deps.Generator.Generate(req.Name, suggest.Options{
			PreferredDistrict: req.PreferredDistrict,
			MaxResults:        req.MaxResults,
			ExcludeClub:       req.ExcludeClub,
			MinPhoneticScore:  req.MinPhoneticScore,
		})
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	})

	// POST /suggest/random - Random suffixes through the same pipeline.
	r.POST("/suggest/random", func(c *gin.Context) {
		var req randomSuggestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.PreferredDistrict != 0 && !validDistrict(req.PreferredDistrict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_district must be a digit 1-9"})
			return
		}
		suggestions, err := deps.Generator.GenerateRandom(req.Count, suggest.Options{
			PreferredDistrict: req.PreferredDistrict,
			ExcludeClub:       req.ExcludeClub,
			MinPhoneticScore:  req.MinPhoneticScore,
		})
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	})

	// GET /info - Database document metadata plus last promoted revision.
	r.GET("/info", func(c *gin.Context) {
		sn, err := deps.Store.Snapshot()
		if err != nil {
			respondStoreError(c, err)
			return
		}
		info := gin.H{
			"version":  sn.DB.Version,
			"source":   sn.DB.Source,
			"built_at": sn.DB.BuiltAt.Format(time.RFC3339),
			"count":    sn.DB.Count,
			"notice":   sn.DB.Notice,
			"server":   version.ProjectVersion,
		}
		if deps.Revisions != nil {
			if rev, err := deps.Revisions.LatestPromoted(c.Request.Context()); err == nil && rev != nil {
				info["last_revision"] = rev
			}
		}
		c.JSON(http.StatusOK, info)
	})

	// GET /stats - Aggregate statistics over the current snapshot.
	r.GET("/stats", func(c *gin.Context) {
		sn, err := deps.Store.Snapshot()
		if err != nil {
			respondStoreError(c, err)
			return
		}
		report := registry.ValidateDatabase(sn.DB)
		c.JSON(http.StatusOK, gin.H{
			"stats":    report.Stats,
			"errors":   len(report.Errors),
			"warnings": len(report.Warnings),
		})
	})

	// GET /healthz - Liveness probe.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.ProjectVersion})
	})
}

// respondStoreError maps the missing-database condition to 503 with an
// actionable message; anything else is a 500.
func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNoDatabase) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "callsign database not available; run the rebuild job (oecall-rebuild)",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// validDistrict accepts the nine regular availability districts.
func validDistrict(d int) bool {
	return d >= 1 && d <= 9
}

func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}

// districtQuery parses an optional ?district= parameter. Responds 400 and
// returns ok=false on garbage input.
func districtQuery(c *gin.Context) ([]int, bool) {
	v := c.Query("district")
	if v == "" {
		return nil, true
	}
	d, err := strconv.Atoi(v)
	if err != nil || !validDistrict(d) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "district must be a digit 1-9"})
		return nil, false
	}
	return []int{d}, true
}
