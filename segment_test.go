package segfx_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
)

var allowEdge = cmp.AllowUnexported(segfx.Edge{})

func TestFlattenRoundTrip(t *testing.T) {
	segs := []segfx.SegmentationSegment{
		{Edge: segfx.Node(ms2.Vec{X: 100, Y: 100}), Scale: 2},
		{Edge: segfx.Bar(ms2.Vec{X: 20, Y: 180}, ms2.Vec{X: 180, Y: 220}), Scale: 0.5},
		{Edge: segfx.Bar(ms2.Vec{X: 180, Y: 300}, ms2.Vec{X: 20, Y: 300}), Scale: 1},
	}
	flat := segfx.Flatten(segs)
	if len(flat) != segfx.FlatStride*len(segs) {
		t.Fatalf("want %d floats, got %d", segfx.FlatStride*len(segs), len(flat))
	}
	want := []float32{
		100, 100, 100, 100, 2,
		20, 180, 180, 220, 0.5,
		180, 300, 20, 300, 1,
	}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Errorf("flat mismatch (-want +got):\n%s", diff)
	}
	got, err := segfx.ParseFlat[segfx.ContentScale](nil, flat)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(segs, got, allowEdge); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenAppends(t *testing.T) {
	prefix := []float32{-1, -2}
	segs := []segfx.GeometrySegment{{Edge: segfx.Node(ms2.Vec{X: 1, Y: 2}), Scale: 3}}
	got := segfx.AppendFlat(prefix, segs)
	if diff := cmp.Diff([]float32{-1, -2, 1, 2, 1, 2, 3}, got); diff != "" {
		t.Error(diff)
	}
	if len(segfx.Flatten[segfx.Speed](nil)) != 0 {
		t.Error("empty segments should flatten to empty buffer")
	}
}

func TestParseFlatCanonicalNode(t *testing.T) {
	p := ms2.Vec{X: 7, Y: 9}
	segs := []segfx.GeometrySegment{{Edge: segfx.Bar(p, p), Scale: 1}}
	got, err := segfx.ParseFlat[segfx.Speed](nil, segfx.Flatten(segs))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Edge.IsBar() {
		t.Error("bar with coincident vertices should decode as node")
	}
	_, err = segfx.ParseFlat[segfx.Speed](nil, []float32{1, 2, 3})
	if err == nil {
		t.Error("expected error for truncated buffer")
	}
}

func TestValidateSegments(t *testing.T) {
	segs := []segfx.GeometrySegment{
		{Edge: segfx.Node(ms2.Vec{X: 1, Y: 1}), Scale: 1},
		{Edge: segfx.Node(ms2.Vec{X: 1, Y: 2}), Scale: 0},
		{Edge: segfx.Node(ms2.Vec{X: 1, Y: 3}), Scale: -2},
	}
	err := segfx.ValidateSegments(segs)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "segment 1") || !strings.Contains(msg, "segment 2") || strings.Contains(msg, "segment 0") {
		t.Errorf("unexpected error message: %q", msg)
	}
	if err := segfx.ValidateSegments(segs[:1]); err != nil {
		t.Error(err)
	}
}

func TestClampScale(t *testing.T) {
	var tests = []struct{ in, want float32 }{
		{0, segfx.MinScale},
		{-1, segfx.MinScale},
		{1, 1},
		{100, segfx.MaxScale},
	}
	for _, test := range tests {
		if got := segfx.ClampScale(test.in); got != test.want {
			t.Errorf("ClampScale(%g): want %g, got %g", test.in, test.want, got)
		}
	}
}

func TestInsertNodeKeepsOrder(t *testing.T) {
	var segs []segfx.GeometrySegment
	for _, y := range []float32{300, 100, 200, 400, 50} {
		segs = segfx.InsertNode(segs, ms2.Vec{X: 10, Y: y}, 1)
	}
	var got []float32
	for _, s := range segs {
		got = append(got, s.Edge.A().Y)
	}
	if diff := cmp.Diff([]float32{50, 100, 200, 300, 400}, got); diff != "" {
		t.Errorf("insert order (-want +got):\n%s", diff)
	}
}

func TestDeleteEdgePoint(t *testing.T) {
	a, b := ms2.Vec{X: 10, Y: 10}, ms2.Vec{X: 70, Y: 10}
	newSegs := func() []segfx.SegmentationSegment {
		return []segfx.SegmentationSegment{
			{Edge: segfx.Bar(a, b), Scale: 1},
			{Edge: segfx.Node(ms2.Vec{X: 5, Y: 50}), Scale: 1},
		}
	}
	segs := segfx.DeleteEdgePoint(newSegs(), 0, segfx.PointA)
	if len(segs) != 2 || segs[0].Edge.IsBar() || segs[0].Edge.A() != b {
		t.Errorf("deleting A of bar should keep B as node, got %v", segs[0].Edge)
	}
	segs = segfx.DeleteEdgePoint(newSegs(), 0, segfx.PointB)
	if len(segs) != 2 || segs[0].Edge.IsBar() || segs[0].Edge.A() != a {
		t.Errorf("deleting B of bar should keep A as node, got %v", segs[0].Edge)
	}
	segs = segfx.DeleteEdgePoint(newSegs(), 1, segfx.PointA)
	if len(segs) != 1 {
		t.Errorf("deleting node vertex should remove segment, got %d segments", len(segs))
	}
	segs = segfx.DeleteEdgePoint(newSegs(), 5, segfx.PointA)
	if len(segs) != 2 {
		t.Error("out of range delete should be a no-op")
	}
}

func TestMoveAndNearestPoint(t *testing.T) {
	segs := []segfx.GeometrySegment{
		{Edge: segfx.Node(ms2.Vec{X: 10, Y: 10}), Scale: 1},
		{Edge: segfx.Node(ms2.Vec{X: 100, Y: 100}), Scale: 1},
	}
	segs = segfx.MovePoint(segs, 1, segfx.PointB, ms2.Vec{X: 160, Y: 100})
	if !segs[1].Edge.IsBar() {
		t.Fatal("moving B of node should promote it to bar")
	}
	idx, which, ok := segfx.NearestPoint(segs, ms2.Vec{X: 155, Y: 103}, 20)
	if !ok || idx != 1 || which != segfx.PointB {
		t.Errorf("want segment 1 point B, got %d %v %v", idx, which, ok)
	}
	idx, which, ok = segfx.NearestPoint(segs, ms2.Vec{X: 12, Y: 9}, 20)
	if !ok || idx != 0 || which != segfx.PointA {
		t.Errorf("want segment 0 point A, got %d %v %v", idx, which, ok)
	}
	if _, _, ok = segfx.NearestPoint(segs, ms2.Vec{X: 500, Y: 500}, 20); ok {
		t.Error("expected no point near (500,500)")
	}
}
