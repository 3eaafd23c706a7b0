package repository_test

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/repository"
	"github.com/nainya/hashstore/pkg/store"
)

type Customer struct {
	ID    string
	Email string
	Tier  string
}

func (Customer) HashDescriptor() meta.Descriptor[Customer] {
	return meta.Descriptor[Customer]{
		Namespace: "customer",
		Fields: []meta.Field[Customer]{
			meta.String("id", func(c *Customer) *string { return &c.ID }).Identifier(),
			meta.String("email", func(c *Customer) *string { return &c.Email }),
			meta.String("tier", func(c *Customer) *string { return &c.Tier }).Indexed(),
		},
	}
}

func Example() {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := repository.New[Customer](store.NewRedis(client),
		repository.WithRegistry(meta.NewRegistry()),
		repository.WithIDGenerator(func() string { return "c-1" }),
	)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &Customer{Email: "kim@example.com", Tier: "gold"})
	if err != nil {
		panic(err)
	}
	fmt.Println("saved", saved.ID)

	ids, _ := repo.FindIDsByIndex(ctx, "tier", "gold")
	fmt.Println("gold", ids)

	found, _ := repo.FindByID(ctx, "c-1")
	fmt.Println("found", found.Email)

	_ = repo.DeleteByID(ctx, "c-1")
	found, _ = repo.FindByID(ctx, "c-1")
	fmt.Println("after delete", found == nil)

	// Output:
	// saved c-1
	// gold [c-1]
	// found kim@example.com
	// after delete true
}
