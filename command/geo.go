package command

import (
	"context"
	"strconv"

	"github.com/nodewire/rediskit/resp"
)

// Geo exposes spec.md §6.1's geospatial family: GEOADD, GEOPOS, GEODIST,
// GEORADIUS, GEORADIUSBYMEMBER. Members live in the same sorted-set data
// structure ZSCORE etc. operate on, so removal is ZREM (spec.md §6.1's
// explicit note); see Remove below.
type Geo struct {
	ex   *Executor
	zset *SortedSets
}

// NewGeo builds a Geo façade over ex.
func NewGeo(ex *Executor) *Geo { return &Geo{ex: ex, zset: NewSortedSets(ex)} }

// Point is one GEOADD input: a member name and its coordinates.
type Point struct {
	Member    string
	Longitude float64
	Latitude  float64
}

// GeoAdd adds points to key's geo index, returning the count of newly
// added members. An empty points slice short-circuits with zero I/O.
func (g *Geo) GeoAdd(ctx context.Context, key string, points []Point) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}
	args := make([]string, 0, len(points)*3+2)
	args = append(args, "GEOADD", key)
	for _, p := range points {
		if p.Member == "" {
			return 0, invalidArg("member must not be empty")
		}
		args = append(args, formatFloat(p.Longitude), formatFloat(p.Latitude), p.Member)
	}
	data, err := g.ex.call(ctx, "GEOADD", key, false, args...)
	if err != nil {
		return 0, err
	}
	return asInt("GEOADD", data)
}

// Coord is one member's decoded longitude/latitude.
type Coord struct {
	Longitude float64
	Latitude  float64
}

// GeoPos returns the coordinates of each requested member, in the same
// order; a member absent from key's geo index yields a nil entry.
func (g *Geo) GeoPos(ctx context.Context, key string, members ...string) ([]*Coord, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, invalidArg("members must not be empty")
	}
	args := append([]string{"GEOPOS", key}, members...)
	data, err := g.ex.call(ctx, "GEOPOS", key, true, args...)
	if err != nil {
		return nil, err
	}
	items, err := asArray("GEOPOS", data)
	if err != nil {
		return nil, err
	}
	out := make([]*Coord, len(items))
	for i, it := range items {
		if it.IsNilArray() {
			continue
		}
		pair, err := asArray("GEOPOS", it)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, unexpectedKind("GEOPOS", "coordinate pair did not have 2 elements")
		}
		lon, _, err := asBulk("GEOPOS", pair[0])
		if err != nil {
			return nil, err
		}
		lat, _, err := asBulk("GEOPOS", pair[1])
		if err != nil {
			return nil, err
		}
		lonF, err1 := strconv.ParseFloat(string(lon), 64)
		latF, err2 := strconv.ParseFloat(string(lat), 64)
		if err1 != nil || err2 != nil {
			return nil, unexpectedKind("GEOPOS", "invalid coordinate reply")
		}
		out[i] = &Coord{Longitude: lonF, Latitude: latF}
	}
	return out, nil
}

// GeoDist returns the distance between two members in unit ("m", "km",
// "mi", or "ft"), or false if either member is absent.
func (g *Geo) GeoDist(ctx context.Context, key, member1, member2, unit string) (float64, bool, error) {
	if err := validateKey(key); err != nil {
		return 0, false, err
	}
	if member1 == "" || member2 == "" {
		return 0, false, invalidArg("member1 and member2 must not be empty")
	}
	if unit == "" {
		unit = "m"
	}
	data, err := g.ex.call(ctx, "GEODIST", key, true, "GEODIST", key, member1, member2, unit)
	if err != nil {
		return 0, false, err
	}
	raw, found, err := asBulk("GEODIST", data)
	if err != nil || !found {
		return 0, found, err
	}
	f, perr := strconv.ParseFloat(string(raw), 64)
	if perr != nil {
		return 0, false, unexpectedKind("GEODIST", "invalid distance reply")
	}
	return f, true, nil
}

// RadiusResult is one GEORADIUS/GEORADIUSBYMEMBER hit. Dist and Coord
// are only populated when the corresponding WITH* option was requested.
type RadiusResult struct {
	Member string
	Dist   float64
	Coord  *Coord
}

// RadiusOptions controls a GEORADIUS/GEORADIUSBYMEMBER query's optional
// clauses.
type RadiusOptions struct {
	WithCoord bool
	WithDist  bool
	Count     int64 // 0 means unlimited
	Desc      bool  // false sorts ascending (the default)
	Sort      bool  // whether to emit ASC/DESC explicitly
}

func (g *Geo) radius(ctx context.Context, args []string, key string, opt RadiusOptions) ([]RadiusResult, error) {
	if opt.WithCoord {
		args = append(args, "WITHCOORD")
	}
	if opt.WithDist {
		args = append(args, "WITHDIST")
	}
	if opt.Count > 0 {
		args = append(args, "COUNT", formatInt(opt.Count))
	}
	if opt.Sort {
		if opt.Desc {
			args = append(args, "DESC")
		} else {
			args = append(args, "ASC")
		}
	}
	data, err := g.ex.call(ctx, args[0], key, true, args...)
	if err != nil {
		return nil, err
	}
	return decodeRadiusResults(args[0], data, opt)
}

// GeoRadius finds members within radius of (lon, lat).
func (g *Geo) GeoRadius(ctx context.Context, key string, lon, lat, radius float64, unit string, opt RadiusOptions) ([]RadiusResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = "m"
	}
	args := []string{"GEORADIUS", key, formatFloat(lon), formatFloat(lat), formatFloat(radius), unit}
	return g.radius(ctx, args, key, opt)
}

// GeoRadiusByMember finds members within radius of an existing member's
// position.
func (g *Geo) GeoRadiusByMember(ctx context.Context, key, member string, radius float64, unit string, opt RadiusOptions) ([]RadiusResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if member == "" {
		return nil, invalidArg("member must not be empty")
	}
	if unit == "" {
		unit = "m"
	}
	args := []string{"GEORADIUSBYMEMBER", key, member, formatFloat(radius), unit}
	return g.radius(ctx, args, key, opt)
}

// Remove removes members from key's geo index via ZREM, per spec.md
// §6.1's explicit note that geo removal reuses the sorted-set command.
func (g *Geo) Remove(ctx context.Context, key string, members ...string) (int64, error) {
	vals := make([][]byte, len(members))
	for i, m := range members {
		vals[i] = []byte(m)
	}
	return g.zset.ZRem(ctx, key, vals...)
}

func decodeRadiusResults(name string, data resp.Data, opt RadiusOptions) ([]RadiusResult, error) {
	items, err := asArray(name, data)
	if err != nil {
		return nil, err
	}
	out := make([]RadiusResult, len(items))
	plain := !opt.WithCoord && !opt.WithDist
	for i, it := range items {
		if plain {
			b, _, err := asBulk(name, it)
			if err != nil {
				return nil, err
			}
			out[i] = RadiusResult{Member: string(b)}
			continue
		}
		fields, err := asArray(name, it)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, unexpectedKind(name, "result tuple had no member field")
		}
		memberBytes, _, err := asBulk(name, fields[0])
		if err != nil {
			return nil, err
		}
		res := RadiusResult{Member: string(memberBytes)}
		idx := 1
		if opt.WithDist {
			distRaw, _, err := asBulk(name, fields[idx])
			if err != nil {
				return nil, err
			}
			distF, perr := strconv.ParseFloat(string(distRaw), 64)
			if perr != nil {
				return nil, unexpectedKind(name, "invalid distance field")
			}
			res.Dist = distF
			idx++
		}
		if opt.WithCoord {
			pair, err := asArray(name, fields[idx])
			if err != nil {
				return nil, err
			}
			if len(pair) != 2 {
				return nil, unexpectedKind(name, "coordinate pair did not have 2 elements")
			}
			lon, _, err := asBulk(name, pair[0])
			if err != nil {
				return nil, err
			}
			lat, _, err := asBulk(name, pair[1])
			if err != nil {
				return nil, err
			}
			lonF, err1 := strconv.ParseFloat(string(lon), 64)
			latF, err2 := strconv.ParseFloat(string(lat), 64)
			if err1 != nil || err2 != nil {
				return nil, unexpectedKind(name, "invalid coordinate field")
			}
			res.Coord = &Coord{Longitude: lonF, Latitude: latF}
		}
		out[i] = res
	}
	return out, nil
}
