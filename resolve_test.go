package linguist

import (
	"sync"

	. "gopkg.in/check.v1"
)

var _ = Suite(&resolveSuite{})

type resolveSuite struct {
	reg    *Registry
	events []LookupEvent
	mu     sync.Mutex
}

func (s *resolveSuite) SetUpTest(c *C) {
	reg, err := NewRegistry("en")
	c.Assert(err, IsNil)
	reg.Register(mustParseTS(c, addTaskRU, "cstp"))
	reg.Register(mustParseTS(c, cstpUK, "cstp"))
	reg.SetLocaleChain("ru")
	s.events = nil
	reg.SetDiagnostics(DiagnosticsFunc(func(ev LookupEvent) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, ev)
	}))
	s.reg = reg
}

func (s *resolveSuite) TestFinished(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Start"})
	c.Check(res.Text, Equals, "Старт")
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Locale, Equals, "ru")
	c.Check(res.Migrated, Equals, false)
	c.Assert(res.Message, NotNil)
	c.Check(res.Message.Locations, DeepEquals, []Location{{"cstp.cpp", 263}})
	c.Check(s.events, HasLen, 0)
}

func (s *resolveSuite) TestUnfinishedIsNeverResolved(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Pause"})
	c.Check(res.Text, Equals, "Пауза")
	c.Check(res.Outcome, Equals, ResolvedUnfinished)
	c.Check(res.Locale, Equals, "ru")

	// An empty translation is not even a candidate.
	res = s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Stop"})
	c.Check(res.Text, Equals, "Stop")
	c.Check(res.Outcome, Equals, NotFound)
	c.Check(res.Locale, Equals, "")
	c.Check(res.Message, IsNil)
}

func (s *resolveSuite) TestChainOrder(c *C) {
	s.reg.SetLocaleChain("uk_UA", "ru")

	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Start"})
	c.Check(res.Locale, Equals, "uk-UA")
	c.Check(res.Outcome, Equals, Resolved)

	// Only the Ukrainian catalog has a Stop candidate.
	res = s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Stop"})
	c.Check(res.Text, Equals, "Стоп")
	c.Check(res.Outcome, Equals, ResolvedUnfinished)
	c.Check(res.Locale, Equals, "uk-UA")

	// Falls through to Russian.
	res = s.reg.Resolve("cstp", Key{Context: "AddTask", Source: "Question"})
	c.Check(res.Text, Equals, "Вопрос")
	c.Check(res.Locale, Equals, "ru")
}

func (s *resolveSuite) TestUnfinishedDoesNotShadowLaterFinished(c *C) {
	s.reg.SetLocaleChain("ru", "uk_UA")
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Pause"})
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Locale, Equals, "uk-UA")
	c.Check(s.events, HasLen, 0)
}

func (s *resolveSuite) TestFirstUnfinishedCandidateWins(c *C) {
	other := mustParseTS(c, tsDocument("be", `<context><name>CSTP</name>
<message><source>Pause</source><translation type="unfinished">Паўза</translation></message>
</context>`), "cstp")
	s.reg.Register(other)
	s.reg.SetLocaleChain("be", "ru")
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Pause"})
	c.Check(res.Text, Equals, "Паўза")
	c.Check(res.Outcome, Equals, ResolvedUnfinished)
	c.Check(res.Locale, Equals, "be")
}

func (s *resolveSuite) TestOldSourceMigration(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "AddTask", Source: "Directory %1 doesn't exist"})
	c.Check(res.Text, Equals, "Директория %1 не существует, хочешь выбрать другую?")
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Migrated, Equals, true)
	c.Check(res.Message.Source, Equals, "Directory %1 doesn't exist, would you like to select another?")

	c.Check(s.reg.Translate("cstp", "AddTask", "Directory %1 doesn't exist", ""), Equals,
		"Директория %1 не существует, хочешь выбрать другую?")

	// Old sources are scoped by context.
	res = s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Directory %1 doesn't exist"})
	c.Check(res.Outcome, Equals, NotFound)
}

const renamedRU = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="ru">
<context>
    <name>AddTask</name>
    <message>
        <source>Directory %1 doesn&apos;t exist</source>
        <translation type="obsolete">Директория %1 не существует</translation>
    </message>
    <message>
        <source>Directory %1 doesn&apos;t exist, would you like to select another?</source>
        <oldsource>Directory %1 doesn&apos;t exist</oldsource>
        <translation>Директория %1 не существует, хочешь выбрать другую?</translation>
    </message>
</context>
</TS>
`

func (s *resolveSuite) TestOldSourceMigrationPastObsoleteEntry(c *C) {
	s.reg.Register(mustParseTS(c, renamedRU, "renamed"))

	res := s.reg.ResolveChain("renamed", Key{Context: "AddTask", Source: "Directory %1 doesn't exist"}, []string{"ru"})
	c.Check(res.Text, Equals, "Директория %1 не существует, хочешь выбрать другую?")
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Migrated, Equals, true)
	c.Check(res.Locale, Equals, "ru")
}

func (s *resolveSuite) TestCurrentSourceStillResolves(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "AddTask", Source: "Directory %1 doesn't exist, would you like to select another?"})
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Migrated, Equals, false)
}

func (s *resolveSuite) TestNotFound(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Unknown Key"})
	c.Check(res, DeepEquals, Resolution{Text: "Unknown Key", Outcome: NotFound})

	res = s.reg.Resolve("other", Key{Context: "CSTP", Source: "Start"})
	c.Check(res.Text, Equals, "Start")
	c.Check(res.Outcome, Equals, NotFound)

	// Disambiguation is part of the key.
	res = s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Start", Disambiguation: "race"})
	c.Check(res.Outcome, Equals, NotFound)
}

func (s *resolveSuite) TestObsoleteIsNeverSurfaced(c *C) {
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Remove task"})
	c.Check(res.Text, Equals, "Remove task")
	c.Check(res.Outcome, Equals, NotFound)

	vanished := mustParseTS(c, tsDocument("de", `<context><name>CSTP</name>
<message><source>Remove task</source><translation type="vanished">Aufgabe entfernen</translation></message>
</context>`), "cstp")
	s.reg.Register(vanished)
	res = s.reg.ResolveChain("cstp", Key{Context: "CSTP", Source: "Remove task"}, []string{"de", "ru"})
	c.Check(res.Text, Equals, "Remove task")
	c.Check(res.Outcome, Equals, NotFound)
}

func (s *resolveSuite) TestBaseLocaleCatalog(c *C) {
	en := mustParseTS(c, tsDocument("en", `<context><name>CSTP</name>
<message><source>Unknown Key</source><translation>Known key</translation></message>
</context>`), "cstp")
	s.reg.Register(en)
	res := s.reg.Resolve("cstp", Key{Context: "CSTP", Source: "Unknown Key"})
	c.Check(res.Text, Equals, "Known key")
	c.Check(res.Locale, Equals, "en")
}

func (s *resolveSuite) TestResolveChain(c *C) {
	key := Key{Context: "CSTP", Source: "Pause"}
	res := s.reg.ResolveChain("cstp", key, []string{"uk_UA.UTF-8"})
	c.Check(res.Outcome, Equals, Resolved)
	c.Check(res.Locale, Equals, "uk-UA")

	// The active chain is untouched.
	c.Check(s.reg.LocaleChain(), DeepEquals, []string{"ru", "en"})

	res = s.reg.ResolveChain("cstp", key, []string{})
	c.Check(res.Outcome, Equals, NotFound)
	c.Assert(s.events, HasLen, 1)
	c.Check(s.events[0].Chain, DeepEquals, []string{"en"})
}

func (s *resolveSuite) TestPlural(c *C) {
	key := Key{Context: "CSTP", Source: "%n file(s)"}
	for _, test := range []struct {
		n    uint64
		text string
	}{
		{0, "%n файлов"},
		{1, "%n файл"},
		{3, "%n файла"},
		{5, "%n файлов"},
		{11, "%n файлов"},
		{21, "%n файл"},
		{104, "%n файла"},
	} {
		res := s.reg.ResolvePlural("cstp", key, test.n)
		c.Check(res.Text, Equals, test.text, Commentf("n=%d", test.n))
		c.Check(res.Outcome, Equals, Resolved)
	}
	c.Check(s.reg.TranslatePlural("cstp", "CSTP", "%n file(s)", "", 2), Equals, "%n файла")
}

func (s *resolveSuite) TestPluralGermanic(c *C) {
	de := mustParseTS(c, tsDocument("de", `<context><name>Files</name>
<message numerus="yes"><source>%1 file(s)</source><translation>
<numerusform>1 Datei</numerusform>
<numerusform>%1 Dateien</numerusform>
</translation></message>
</context>`), "cstp")
	s.reg.Register(de)
	s.reg.SetLocaleChain("de")
	key := Key{Context: "Files", Source: "%1 file(s)"}
	c.Check(s.reg.ResolvePlural("cstp", key, 1).Text, Equals, "1 Datei")
	c.Check(s.reg.ResolvePlural("cstp", key, 0).Text, Equals, "%1 Dateien")
	c.Check(s.reg.ResolvePlural("cstp", key, 7).Text, Equals, "%1 Dateien")
	c.Check(s.reg.Resolve("cstp", key).Text, Equals, "1 Datei")
}

func (s *resolveSuite) TestPluralOfSingularMessage(c *C) {
	res := s.reg.ResolvePlural("cstp", Key{Context: "CSTP", Source: "Start"}, 5)
	c.Check(res.Text, Equals, "Старт")

	res = s.reg.ResolvePlural("cstp", Key{Context: "CSTP", Source: "%n thing(s)"}, 5)
	c.Check(res.Text, Equals, "%n thing(s)")
	c.Check(res.Outcome, Equals, NotFound)
}

func (s *resolveSuite) TestPluralUsesCatalogRule(c *C) {
	// The chain prefers French, but the message comes from Russian.
	s.reg.SetLocaleChain("fr", "ru")
	res := s.reg.ResolvePlural("cstp", Key{Context: "CSTP", Source: "%n file(s)"}, 5)
	c.Check(res.Text, Equals, "%n файлов")
}

func (s *resolveSuite) TestDiagnostics(c *C) {
	s.reg.Translate("cstp", "CSTP", "Start", "")
	s.reg.Translate("cstp", "CSTP", "Pause", "")
	s.reg.TranslatePlural("cstp", "CSTP", "Unknown %n", "", 3)

	c.Assert(s.events, HasLen, 2)
	c.Check(s.events[0], DeepEquals, LookupEvent{
		Module:  "cstp",
		Key:     Key{Context: "CSTP", Source: "Pause"},
		Outcome: ResolvedUnfinished,
		Locale:  "ru",
		Chain:   []string{"ru", "en"},
	})
	c.Check(s.events[1], DeepEquals, LookupEvent{
		Module:  "cstp",
		Key:     Key{Context: "CSTP", Source: "Unknown %n"},
		Outcome: NotFound,
		Chain:   []string{"ru", "en"},
		Plural:  true,
	})

	s.reg.SetDiagnostics(nil)
	s.reg.Translate("cstp", "CSTP", "Pause", "")
	c.Check(s.events, HasLen, 2)
}

func (s *resolveSuite) TestOutcomeString(c *C) {
	c.Check(Resolved.String(), Equals, "resolved")
	c.Check(ResolvedUnfinished.String(), Equals, "resolved-unfinished")
	c.Check(NotFound.String(), Equals, "not-found")
	c.Check(Outcome(9).String(), Equals, "Outcome(9)")
}
