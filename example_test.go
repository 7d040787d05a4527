package bsi_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/bsi"
	"github.com/hupe1980/bsi/bitmap"
	"github.com/hupe1980/bsi/blobstore"
	"github.com/hupe1980/bsi/resource"
	"github.com/hupe1980/bsi/snapshot"
)

// Example_rangeQuery stores order totals by customer id and filters them.
func Example_rangeQuery() {
	totals := bsi.New[uint32]()
	totals.SetValue(1, 120)
	totals.SetValue(2, 45)
	totals.SetValue(3, 300)
	totals.SetValue(4, 80)

	mid := totals.Range(50, 150, nil)
	fmt.Println(mid.ToArray())

	sum, count := totals.Sum(totals.GE(80, nil))
	fmt.Println(sum, count)
	// Output:
	// [1 4]
	// 500 3
}

// Example_topK picks the largest values among a subset of keys.
func Example_topK() {
	scores := bsi.New[uint64]()
	for k, v := range []uint64{7, 3, 9, 1, 9} {
		scores.SetValue(uint64(k), v)
	}

	top, err := scores.TopK(bitmap.Of[uint64](0, 1, 2, 3), 2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(top.ToArray())
	// Output: [0 2]
}

// Example_parallelCompare bounds concurrent batches with a shared controller.
func Example_parallelCompare() {
	totals := bsi.New[uint32]()
	for k := uint32(0); k < 1000; k++ {
		totals.SetValue(k, uint64(k%10))
	}

	ctrl := resource.NewController(resource.Config{MaxWorkers: 2})
	nines, err := totals.ParallelCompare(context.Background(), bsi.EQ, 9, 0, nil,
		bsi.WithController(ctrl), bsi.WithBatchSize(128))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(nines.Cardinality(), nines.Minimum())
	// Output: 100 9
}

// Example_snapshot saves an index and loads it back.
func Example_snapshot() {
	ctx := context.Background()

	x := bsi.New[uint32]()
	x.SetValue(10, 5)
	x.SetValue(11, 6)

	ctrl := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	mgr := snapshot.NewManager(blobstore.NewMemoryStore(),
		snapshot.WithCompression(snapshot.LZ4Compression),
		snapshot.WithController(ctrl))
	info, err := mgr.Save(ctx, "orders", x)
	if err != nil {
		log.Fatal(err)
	}

	y, err := mgr.Load32(ctx, "orders")
	if err != nil {
		log.Fatal(err)
	}
	v, _ := y.GetValue(11)
	fmt.Println(info.Version, y.Cardinality(), v)
	// Output: 1 2 6
}
