package wandercms

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreatePost(t *testing.T, s *Store, p Post, categoryIDs ...uint) Post {
	t.Helper()
	if p.Description == "" {
		p.Description = "some description"
	}
	if err := s.CreatePost(&p, categoryIDs); err != nil {
		t.Fatalf("failed to create post %q: %v", p.Title, err)
	}
	return p
}

func TestCreateCategoryDerivesAndDedupesSlug(t *testing.T) {
	s := setupTestStore(t)

	first := Category{Name: "Mountain Hiking"}
	if err := s.CreateCategory(&first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Slug != "mountain-hiking" {
		t.Fatalf("expected derived slug, got %q", first.Slug)
	}

	second := Category{Name: "Mountain Hiking!"}
	if err := s.CreateCategory(&second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Slug != "mountain-hiking-2" {
		t.Fatalf("expected suffixed slug, got %q", second.Slug)
	}
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	s := setupTestStore(t)

	if err := s.CreateCategory(&Category{Name: "Food"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.CreateCategory(&Category{Name: "Food"})
	v := AsValidation(err)
	if v == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := v.Fields["name"]; !ok {
		t.Fatalf("expected name field error, got %v", v.Fields)
	}
}

func TestDeleteCategoryDetachesPostsOnly(t *testing.T) {
	s := setupTestStore(t)

	cat := Category{Name: "Beaches"}
	if err := s.CreateCategory(&cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	post := mustCreatePost(t, s, Post{Title: "Best Beaches", IsPublished: true}, cat.ID)

	if err := s.DeleteCategory(cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := s.PostByID(post.ID)
	if err != nil {
		t.Fatalf("post should survive category deletion: %v", err)
	}
	if len(got.Categories) != 0 {
		t.Fatalf("expected post to be detached, got %d categories", len(got.Categories))
	}
}

func TestPublishedPostsExcludesDrafts(t *testing.T) {
	s := setupTestStore(t)

	mustCreatePost(t, s, Post{Title: "Published", IsPublished: true})
	mustCreatePost(t, s, Post{Title: "Draft"})

	posts, err := s.PublishedPosts(PostFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Published" {
		t.Fatalf("expected only the published post, got %+v", posts)
	}
}

func TestPublishedPostsSearchMatchesCategoryName(t *testing.T) {
	s := setupTestStore(t)

	cat := Category{Name: "Adventure"}
	if err := s.CreateCategory(&cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	mustCreatePost(t, s, Post{Title: "Trip One", IsPublished: true}, cat.ID)
	mustCreatePost(t, s, Post{Title: "Trip Two", IsPublished: true})

	posts, err := s.PublishedPosts(PostFilter{Query: "adven"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Trip One" {
		t.Fatalf("expected category-name match only, got %+v", posts)
	}
}

func TestPublishedPostsSearchDoesNotDuplicate(t *testing.T) {
	s := setupTestStore(t)

	one := Category{Name: "Hiking Trails"}
	two := Category{Name: "Hiking Gear"}
	for _, c := range []*Category{&one, &two} {
		if err := s.CreateCategory(c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	mustCreatePost(t, s, Post{Title: "Hiking Guide", IsPublished: true}, one.ID, two.ID)

	posts, err := s.PublishedPosts(PostFilter{Query: "hiking"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected one deduplicated result, got %d", len(posts))
	}
}

func TestPublishedPostPageClampsAndDoesNotOverlap(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < PublicPageSize+5; i++ {
		when := time.Now().Add(-time.Duration(i) * time.Hour)
		mustCreatePost(t, s, Post{
			Title:       "Post " + string(rune('A'+i)),
			IsPublished: true,
			PublishedAt: &when,
		})
	}

	first, err := s.PublishedPostPage(PostFilter{}, 0)
	if err != nil {
		t.Fatalf("page 0: %v", err)
	}
	if first.Number != 1 {
		t.Fatalf("expected page 0 to clamp to 1, got %d", first.Number)
	}
	if len(first.Items) != PublicPageSize {
		t.Fatalf("expected a full first page, got %d items", len(first.Items))
	}

	last, err := s.PublishedPostPage(PostFilter{}, 99)
	if err != nil {
		t.Fatalf("page 99: %v", err)
	}
	if last.Number != 2 || last.TotalPages != 2 {
		t.Fatalf("expected clamp to last page 2, got %d of %d", last.Number, last.TotalPages)
	}
	if len(last.Items) != 5 {
		t.Fatalf("expected 5 items on the last page, got %d", len(last.Items))
	}

	seen := map[uint]bool{}
	for _, p := range append(first.Items, last.Items...) {
		if seen[p.ID] {
			t.Fatalf("post %d appears on both pages", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestPostSlugDedupe(t *testing.T) {
	s := setupTestStore(t)

	a := mustCreatePost(t, s, Post{Title: "Same Title"})
	b := mustCreatePost(t, s, Post{Title: "Same Title"})
	if a.Slug != "same-title" || b.Slug != "same-title-2" {
		t.Fatalf("unexpected slugs %q / %q", a.Slug, b.Slug)
	}
}

func TestPostBySlugPublishedOnly(t *testing.T) {
	s := setupTestStore(t)

	draft := mustCreatePost(t, s, Post{Title: "Hidden Draft"})

	if _, err := s.PostBySlug(draft.Slug, true); !eris.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for draft on public lookup, got %v", err)
	}
	if _, err := s.PostBySlug(draft.Slug, false); err != nil {
		t.Fatalf("admin lookup should find draft: %v", err)
	}
}

func TestUpdatePostKeepsSlug(t *testing.T) {
	s := setupTestStore(t)

	post := mustCreatePost(t, s, Post{Title: "Original Title"})
	slug := post.Slug

	post.Title = "Renamed Title"
	if err := s.UpdatePost(&post, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.PostByID(post.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Slug != slug {
		t.Fatalf("slug changed on update: %q -> %q", slug, got.Slug)
	}
}

func TestAdminPostsTitleFilter(t *testing.T) {
	s := setupTestStore(t)

	mustCreatePost(t, s, Post{Title: "Winter in Norway"})
	mustCreatePost(t, s, Post{Title: "Summer in Spain", IsPublished: true})

	posts, err := s.AdminPosts("WINTER")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Winter in Norway" {
		t.Fatalf("expected case-insensitive title match, got %+v", posts)
	}

	all, err := s.AdminPosts("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin list should include drafts, got %d", len(all))
	}
}

func TestPageHeroSingletonPerPage(t *testing.T) {
	s := setupTestStore(t)

	first := PageHeroImage{Page: PageAbout, Image: "/media/page_hero/a.jpg", IsActive: true}
	if err := s.CreatePageHero(&first); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := s.CreatePageHero(&PageHeroImage{Page: PageAbout, Image: "/media/page_hero/b.jpg"})
	if AsValidation(err) == nil {
		t.Fatalf("expected validation error for duplicate page, got %v", err)
	}

	other := PageHeroImage{Page: PageContact, Image: "/media/page_hero/c.jpg"}
	if err := s.CreatePageHero(&other); err != nil {
		t.Fatalf("create other page: %v", err)
	}
	other.Page = PageAbout
	if AsValidation(s.UpdatePageHero(&other)) == nil {
		t.Fatalf("expected validation error when moving onto an occupied page")
	}
}

func TestCreatePageHeroRequiresImage(t *testing.T) {
	s := setupTestStore(t)

	err := s.CreatePageHero(&PageHeroImage{Page: PageCategories})
	v := AsValidation(err)
	if v == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := v.Fields["image"]; !ok {
		t.Fatalf("expected image field error, got %v", v.Fields)
	}
}

func TestSeedPageHeroIsIdempotent(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.SeedPageHero(PageDestination, "Amazing Destinations", "Explore")
	if err != nil || !created {
		t.Fatalf("expected first seed to create, got %v %v", created, err)
	}
	created, err = s.SeedPageHero(PageDestination, "Amazing Destinations", "Explore")
	if err != nil || created {
		t.Fatalf("expected second seed to be a no-op, got %v %v", created, err)
	}

	hero, err := s.ActivePageHero(PageDestination)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if hero != nil {
		t.Fatalf("seeded hero must start inactive, got %+v", hero)
	}
}

func TestActivePageHeroAbsenceIsNotAnError(t *testing.T) {
	s := setupTestStore(t)

	hero, err := s.ActivePageHero(PageContact)
	if err != nil {
		t.Fatalf("expected nil error for missing hero, got %v", err)
	}
	if hero != nil {
		t.Fatalf("expected nil hero, got %+v", hero)
	}
}

func TestMiniVideoRequiresExactlyOneSource(t *testing.T) {
	s := setupTestStore(t)

	if AsValidation(s.CreateMiniVideo(&HomeMiniVideo{})) == nil {
		t.Fatalf("expected validation error with no source")
	}
	both := HomeMiniVideo{VideoFile: "/media/home/video/a.mp4", YoutubeURL: "https://youtu.be/x"}
	if AsValidation(s.CreateMiniVideo(&both)) == nil {
		t.Fatalf("expected validation error with both sources")
	}
	if err := s.CreateMiniVideo(&HomeMiniVideo{YoutubeURL: "https://youtu.be/x"}); err != nil {
		t.Fatalf("single source should pass: %v", err)
	}
}

func TestActiveMiniVideoPicksOldestActive(t *testing.T) {
	s := setupTestStore(t)

	first := HomeMiniVideo{YoutubeURL: "https://youtu.be/one", IsActive: true}
	second := HomeMiniVideo{YoutubeURL: "https://youtu.be/two", IsActive: true}
	inactive := HomeMiniVideo{YoutubeURL: "https://youtu.be/three"}
	for _, v := range []*HomeMiniVideo{&first, &second, &inactive} {
		if err := s.CreateMiniVideo(v); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	active, err := s.ActiveMiniVideo()
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if active == nil || active.ID != first.ID {
		t.Fatalf("expected the oldest active video, got %+v", active)
	}
}

func TestToggleHeroImagePreservesSortOrder(t *testing.T) {
	s := setupTestStore(t)

	item := HeroImage{Image: "/media/hero/a.jpg", IsActive: true, SortOrder: 3}
	if err := s.CreateHeroImage(&item); err != nil {
		t.Fatalf("create: %v", err)
	}

	toggled, err := s.ToggleHeroImage(item.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected toggle to deactivate")
	}
	if toggled.SortOrder != 3 {
		t.Fatalf("sort order changed: %d", toggled.SortOrder)
	}

	active, err := s.HeroImages(true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active heroes, got %d", len(active))
	}
}

func TestCitySlugScopedToDestination(t *testing.T) {
	s := setupTestStore(t)

	norway := Destination{Title: "Norway"}
	sweden := Destination{Title: "Sweden"}
	for _, d := range []*Destination{&norway, &sweden} {
		if err := s.CreateDestination(d); err != nil {
			t.Fatalf("create destination: %v", err)
		}
	}

	inNorway := City{DestinationID: norway.ID, Name: "Bergen"}
	if err := s.CreateCity(&inNorway); err != nil {
		t.Fatalf("create city: %v", err)
	}
	inSweden := City{DestinationID: sweden.ID, Name: "Bergen"}
	if err := s.CreateCity(&inSweden); err != nil {
		t.Fatalf("same name in another destination should pass: %v", err)
	}
	if inNorway.Slug != "bergen" || inSweden.Slug != "bergen" {
		t.Fatalf("expected both base slugs, got %q / %q", inNorway.Slug, inSweden.Slug)
	}

	again := City{DestinationID: norway.ID, Name: "Bergen"}
	if err := s.CreateCity(&again); err != nil {
		t.Fatalf("create duplicate in same destination: %v", err)
	}
	if again.Slug != "bergen-2" {
		t.Fatalf("expected suffixed slug within destination, got %q", again.Slug)
	}
}

func TestDeleteDestinationCascades(t *testing.T) {
	s := setupTestStore(t)

	dest := Destination{Title: "Iceland"}
	if err := s.CreateDestination(&dest); err != nil {
		t.Fatalf("create destination: %v", err)
	}
	city := City{DestinationID: dest.ID, Name: "Reykjavik"}
	if err := s.CreateCity(&city); err != nil {
		t.Fatalf("create city: %v", err)
	}

	if err := s.DeleteDestination(dest.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.CityByID(city.ID); !eris.Is(err, ErrNotFound) {
		t.Fatalf("expected city to cascade, got %v", err)
	}
}

func TestDashboardCounts(t *testing.T) {
	s := setupTestStore(t)

	mustCreatePost(t, s, Post{Title: "One", IsPublished: true, IsFeatured: true})
	mustCreatePost(t, s, Post{Title: "Two", IsArticle: true})
	if err := s.CreateCategory(&Category{Name: "Trips"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	stats, err := s.Dashboard()
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.Posts != 2 || stats.Published != 1 || stats.Featured != 1 || stats.Articles != 1 {
		t.Fatalf("unexpected post counts: %+v", stats)
	}
	if stats.Categories != 1 {
		t.Fatalf("unexpected category count: %d", stats.Categories)
	}
	if len(stats.RecentPosts) != 2 {
		t.Fatalf("expected 2 recent posts, got %d", len(stats.RecentPosts))
	}
}

func TestFooterCategories(t *testing.T) {
	s := setupTestStore(t)

	if err := s.CreateCategory(&Category{Name: "Visible", ShowInFooter: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateCategory(&Category{Name: "Hidden"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	footer, err := s.FooterCategories()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(footer) != 1 || footer[0].Name != "Visible" {
		t.Fatalf("expected only flagged categories, got %+v", footer)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := setupTestStore(t)

	user, err := s.CreateUser("editor", "secret123", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !user.IsStaff || !user.IsActive {
		t.Fatalf("expected active staff user, got %+v", user)
	}
	if !user.CheckPassword("secret123") {
		t.Fatalf("password should verify")
	}
	if user.CheckPassword("wrong") {
		t.Fatalf("wrong password should not verify")
	}

	if err := s.UpdatePassword(user.ID, "newpass456"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	reloaded, err := s.UserByID(user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.CheckPassword("newpass456") {
		t.Fatalf("new password should verify")
	}
	if reloaded.CheckPassword("secret123") {
		t.Fatalf("old password should no longer verify")
	}
}

func TestPasswordStrengthPolicy(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"short1", false},
		{"allletters", false},
		{"12345678", false},
		{"letters99", true},
	}
	for _, tc := range cases {
		err := ValidatePasswordStrength(tc.password)
		if tc.ok && err != nil {
			t.Errorf("%q: expected ok, got %v", tc.password, err)
		}
		if !tc.ok && AsValidation(err) == nil {
			t.Errorf("%q: expected validation error, got %v", tc.password, err)
		}
	}
}
