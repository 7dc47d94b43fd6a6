package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/channel"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/employee"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/interaction"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/productivity"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/status"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/upload"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/agentname"
	"github.com/vialuz/sac-dashboard/modules/sac/domain/value_objects/shift"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/tabular"
	"github.com/vialuz/sac-dashboard/pkg/composables"
	"github.com/vialuz/sac-dashboard/pkg/eventbus"
	"github.com/vialuz/sac-dashboard/pkg/serrors"
)

// Error codes the HTTP layer maps to response statuses.
const (
	ErrCodeInvalidFile   = "invalid_file"
	ErrCodeDuplicateFile = "duplicate_file"
	ErrCodeValidation    = "validation"
	ErrCodeInternal      = "internal"
)

var ErrDuplicateFile = serrors.NewError(
	ErrCodeDuplicateFile,
	"Este arquivo já foi importado anteriormente. Envie um arquivo diferente para evitar duplicidade de dados.",
	"",
)

// ValidationError carries the pre-validation report for a rejected file.
type ValidationError struct {
	Format    string
	Message   string
	Errors    []string
	TotalRows int
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	collectedErrorsCap = 20
	returnedErrorsCap  = 10
	storedErrorsCap    = 5
)

// IngestResult summarizes one processed file.
type IngestResult struct {
	UploadID   uuid.UUID
	Status     upload.Status
	Message    string
	Format     string
	TotalRows  int
	Imported   int
	Ignored    int
	Duplicates int
	ErrorCount int
	Errors     []string
}

// FileIngestedEvent is published after every finished import, including
// partial and failed ones.
type FileIngestedEvent struct {
	UploadID uuid.UUID
	Filename string
	Format   string
	Status   upload.Status
	Imported int
}

type IngestionService struct {
	uploads      upload.Repository
	employees    employee.Repository
	channels     channel.Repository
	statuses     status.Repository
	interactions interaction.Repository
	productivity productivity.Repository
	resolver     *agentname.Resolver
	maxFileBytes int64
	publisher    eventbus.EventBus
}

func NewIngestionService(
	uploads upload.Repository,
	employees employee.Repository,
	channels channel.Repository,
	statuses status.Repository,
	interactions interaction.Repository,
	prod productivity.Repository,
	resolver *agentname.Resolver,
	maxFileBytes int64,
	publisher eventbus.EventBus,
) *IngestionService {
	return &IngestionService{
		uploads:      uploads,
		employees:    employees,
		channels:     channels,
		statuses:     statuses,
		interactions: interactions,
		productivity: prod,
		resolver:     resolver,
		maxFileBytes: maxFileBytes,
		publisher:    publisher,
	}
}

// Ingest runs the whole pipeline for one uploaded file: gates, duplicate
// check, format detection, pre-validation, parsing and the transactional
// write. referenceDate overrides the aggregate date for Voalle files; nil
// falls back to the filename and then to today.
func (s *IngestionService) Ingest(
	ctx context.Context,
	filename string,
	raw []byte,
	referenceDate *time.Time,
) (*IngestResult, error) {
	now := time.Now().UTC()

	if err := s.validateFile(filename, raw); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	fileHash := hex.EncodeToString(sum[:])

	exists, err := s.uploads.ExistsByHash(ctx, fileHash)
	if err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}
	if exists {
		return nil, ErrDuplicateFile
	}

	record := upload.New(filename, fileHash)
	if err := s.uploads.Create(ctx, record); err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}

	result, err := s.process(ctx, record, filename, raw, referenceDate, now)
	if err != nil {
		s.failUpload(ctx, record, err)
		return nil, err
	}

	s.publisher.Publish(&FileIngestedEvent{
		UploadID: record.ID(),
		Filename: filename,
		Format:   result.Format,
		Status:   result.Status,
		Imported: result.Imported,
	})
	return result, nil
}

// Uploads lists the most recent upload records.
func (s *IngestionService) Uploads(ctx context.Context, limit int) ([]*upload.Upload, error) {
	return s.uploads.GetRecent(ctx, limit)
}

func (s *IngestionService) validateFile(filename string, raw []byte) error {
	switch err := tabular.Validate(filename, raw, s.maxFileBytes); err {
	case nil:
		return nil
	case tabular.ErrUnsupportedExtension:
		return serrors.NewError(ErrCodeInvalidFile,
			"Formato de arquivo não permitido. Por favor, envie um arquivo .csv ou .xlsx.", "")
	case tabular.ErrEmptyFile:
		return serrors.NewError(ErrCodeInvalidFile,
			"O arquivo enviado está vazio. Por favor, selecione um arquivo com dados.", "")
	case tabular.ErrFileTooLarge:
		return serrors.NewError(ErrCodeInvalidFile, fmt.Sprintf(
			"O arquivo tem %.1f MB e excede o limite de %.0f MB. Divida em partes menores.",
			float64(len(raw))/1024/1024, float64(s.maxFileBytes)/1024/1024), "")
	default:
		return serrors.NewError(ErrCodeInvalidFile, err.Error(), "")
	}
}

func (s *IngestionService) process(
	ctx context.Context,
	record *upload.Upload,
	filename string,
	raw []byte,
	referenceDate *time.Time,
	now time.Time,
) (*IngestResult, error) {
	record.MarkProcessing()
	if err := s.uploads.Update(ctx, record); err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}

	table, err := tabular.Decode(filename, raw, s.maxFileBytes)
	if err != nil || len(table.Rows) == 0 {
		return nil, serrors.NewError(ErrCodeInvalidFile,
			"O arquivo não contém registros de dados. Verifique a planilha e tente novamente.", "")
	}

	format := DetectFormat(table.Headers)
	if format == FormatUnknown {
		return nil, serrors.NewError(ErrCodeInvalidFile,
			"Não foi possível identificar o tipo da planilha. Verifique se as colunas estão corretas.", "")
	}

	var voalleDate time.Time
	if format == FormatVoalle {
		if referenceDate != nil {
			voalleDate = *referenceDate
		} else {
			voalleDate = extractDateFromFilename(filename, now)
		}
		if err := validateReferenceDate(voalleDate, now); err != nil {
			return nil, serrors.NewError(ErrCodeInvalidFile, err.Error(), "")
		}
	}

	if errs := preValidate(table.Rows, format, now); len(errs) > 0 {
		return nil, &ValidationError{
			Format: format.String(),
			Message: fmt.Sprintf(
				"A planilha (%s) contém dados inválidos. Corrija os problemas e tente novamente.",
				format,
			),
			Errors:    errs,
			TotalRows: len(table.Rows),
		}
	}

	parsed, tally, err := s.parseRows(ctx, table.Rows, format, voalleDate)
	if err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.persistBatch(txCtx, parsed, format, voalleDate, tally)
	}); err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}

	st := upload.ResolveStatus(tally.imported, tally.duplicates, tally.errorCount)
	message := buildResultMessage(st, tally)

	var errorText *string
	if len(tally.errors) > 0 {
		joined := strings.Join(capStrings(tally.errors, storedErrorsCap), "; ")
		errorText = &joined
	}
	record.Finish(st, tally.imported, tally.duplicates, errorText)
	if err := s.uploads.Update(ctx, record); err != nil {
		return nil, serrors.NewError(ErrCodeInternal, sanitizeStorageError(err), "")
	}

	return &IngestResult{
		UploadID:   record.ID(),
		Status:     st,
		Message:    message,
		Format:     format.String(),
		TotalRows:  len(table.Rows),
		Imported:   tally.imported,
		Ignored:    tally.ignored,
		Duplicates: tally.duplicates,
		ErrorCount: tally.errorCount,
		Errors:     capStrings(tally.errors, returnedErrorsCap),
	}, nil
}

// batchTally accumulates counters across parsing and persistence.
type batchTally struct {
	imported   int
	ignored    int
	duplicates int
	errorCount int
	errors     []string
}

func (t *batchTally) addError(line int, message string) {
	t.errorCount++
	if len(t.errors) < collectedErrorsCap {
		t.errors = append(t.errors, fmt.Sprintf("Linha %d: %s", line, message))
	}
}

type parsedBatch struct {
	interactions []*interaction.Record
	productivity []*productivity.Record
}

// parseRows turns data rows into records, applying the sector filter, the
// Voalle system-row block list and in-file protocol dedup. Protocols already
// persisted are looked up once before parsing.
func (s *IngestionService) parseRows(
	ctx context.Context,
	rows []tabular.Row,
	format Format,
	voalleDate time.Time,
) (*parsedBatch, *batchTally, error) {
	tally := &batchTally{}
	batch := &parsedBatch{}
	parser := &rowParser{format: format, voalleDate: voalleDate, resolver: s.resolver}

	existingProtocols, err := s.preloadProtocols(ctx, rows, format)
	if err != nil {
		return nil, nil, err
	}
	var sacAgents map[string]struct{}
	if format == FormatVoalle {
		if sacAgents, err = s.sacAgentNames(ctx); err != nil {
			return nil, nil, err
		}
	}
	seenProtocols := make(map[string]struct{})

	for i, row := range rows {
		line := i + 1

		if format == FormatVoalle {
			name := agentname.Clean(row.Get("Atendente"))
			if isBlockedVoalleSender(name) {
				tally.ignored++
				continue
			}
			// Voalle has no department column; a row is kept when the
			// agent is rostered or already registered with the SAC team.
			if _, registered := sacAgents[name]; !registered && !s.resolver.IsKnown(name) {
				tally.ignored++
				continue
			}
		}

		parsed, err := parser.Parse(row)
		if err != nil {
			tally.addError(line, err.Error())
			continue
		}
		if parsed.Interaction == nil && parsed.Productivity == nil {
			tally.ignored++
			continue
		}

		if rec := parsed.Interaction; rec != nil {
			if rec.Protocol != nil {
				proto := *rec.Protocol
				if _, dup := seenProtocols[proto]; dup {
					tally.duplicates++
					continue
				}
				if _, dup := existingProtocols[proto]; dup {
					tally.duplicates++
					continue
				}
				seenProtocols[proto] = struct{}{}
			}
			batch.interactions = append(batch.interactions, rec)
		}
		if rec := parsed.Productivity; rec != nil {
			batch.productivity = append(batch.productivity, rec)
		}
	}
	return batch, tally, nil
}

func (s *IngestionService) preloadProtocols(ctx context.Context, rows []tabular.Row, format Format) (map[string]struct{}, error) {
	if format == FormatVoalle {
		return nil, nil
	}
	var protocols []string
	for _, row := range rows {
		proto := row.Get("Número do Protocolo")
		if proto == "" {
			proto = row.Get("Protocolo")
		}
		if proto != "" {
			protocols = append(protocols, proto)
		}
	}
	if len(protocols) == 0 {
		return nil, nil
	}
	return s.interactions.ExistingProtocols(ctx, protocols)
}

// sacAgentNames loads the normalized names and aliases of every employee
// already registered with a SAC team.
func (s *IngestionService) sacAgentNames(ctx context.Context) (map[string]struct{}, error) {
	isSAC := func(e *employee.Employee) bool {
		return e.Team() != nil &&
			strings.HasPrefix(strings.ToUpper(strings.TrimSpace(*e.Team())), sectorPrefix)
	}

	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for _, e := range employees {
		if isSAC(e) {
			names[agentname.Normalize(e.Name())] = struct{}{}
		}
	}

	aliases, err := s.employees.Aliases(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		if isSAC(a.Employee()) {
			names[agentname.Normalize(a.Alias())] = struct{}{}
		}
	}
	return names, nil
}

// persistBatch writes one parsed file inside a single transaction: missing
// dimensions first, then facts in chunks, then the shift recompute.
func (s *IngestionService) persistBatch(
	ctx context.Context,
	batch *parsedBatch,
	format Format,
	voalleDate time.Time,
	tally *batchTally,
) error {
	cache, err := s.buildDimCache(ctx)
	if err != nil {
		return err
	}

	if err := s.createMissingDims(ctx, batch, cache); err != nil {
		return err
	}

	if format == FormatVoalle {
		return s.persistProductivity(ctx, batch.productivity, voalleDate, cache, tally)
	}
	return s.persistInteractions(ctx, batch.interactions, cache, tally)
}

// dimCache indexes dimension rows for one batch. Employee keys are canonical
// names; alias entries override plain ones since they are explicit admin
// mappings.
type dimCache struct {
	employees map[string]*employee.Employee
	channels  map[string]*channel.Channel
	statuses  map[string]*status.Status
}

func (s *IngestionService) buildDimCache(ctx context.Context) (*dimCache, error) {
	cache := &dimCache{
		employees: make(map[string]*employee.Employee),
		channels:  make(map[string]*channel.Channel),
		statuses:  make(map[string]*status.Status),
	}

	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range employees {
		cache.employees[agentname.Normalize(e.Name())] = e
	}

	aliases, err := s.employees.Aliases(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		cache.employees[agentname.Normalize(a.Alias())] = a.Employee()
	}

	channels, err := s.channels.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		cache.channels[c.Name()] = c
	}

	statuses, err := s.statuses.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		cache.statuses[st.Name()] = st
	}
	return cache, nil
}

func (s *IngestionService) createMissingDims(ctx context.Context, batch *parsedBatch, cache *dimCache) error {
	var newEmployees []*employee.Employee
	seenEmployees := make(map[string]struct{})
	addEmployee := func(key string, team *string) {
		if _, ok := cache.employees[key]; ok {
			return
		}
		if _, ok := seenEmployees[key]; ok {
			return
		}
		seenEmployees[key] = struct{}{}
		teamName := employee.TeamSAC
		if team != nil && *team != "" {
			teamName = *team
		}
		newEmployees = append(newEmployees,
			employee.New(agentname.Display(key), employee.WithTeam(&teamName)))
	}

	newChannels := make(map[string]struct{})
	newStatuses := make(map[string]struct{})
	for _, rec := range batch.interactions {
		addEmployee(rec.EmployeeName, rec.Team)
		if _, ok := cache.channels[rec.ChannelName]; !ok {
			newChannels[rec.ChannelName] = struct{}{}
		}
		if _, ok := cache.statuses[rec.StatusName]; !ok {
			newStatuses[rec.StatusName] = struct{}{}
		}
	}
	for _, rec := range batch.productivity {
		addEmployee(rec.EmployeeName, nil)
	}

	if len(newEmployees) > 0 {
		if err := s.employees.CreateMissing(ctx, newEmployees); err != nil {
			return err
		}
		names := make([]string, 0, len(newEmployees))
		for _, e := range newEmployees {
			names = append(names, e.Name())
		}
		created, err := s.employees.GetByNames(ctx, names)
		if err != nil {
			return err
		}
		for _, e := range created {
			cache.employees[agentname.Normalize(e.Name())] = e
		}
	}

	if err := s.refreshChannels(ctx, keys(newChannels), cache); err != nil {
		return err
	}
	return s.refreshStatuses(ctx, keys(newStatuses), cache)
}

func (s *IngestionService) refreshChannels(ctx context.Context, names []string, cache *dimCache) error {
	if len(names) == 0 {
		return nil
	}
	if err := s.channels.CreateMissing(ctx, names); err != nil {
		return err
	}
	created, err := s.channels.GetByNames(ctx, names)
	if err != nil {
		return err
	}
	for _, c := range created {
		cache.channels[c.Name()] = c
	}
	return nil
}

func (s *IngestionService) refreshStatuses(ctx context.Context, names []string, cache *dimCache) error {
	if len(names) == 0 {
		return nil
	}
	if err := s.statuses.CreateMissing(ctx, names); err != nil {
		return err
	}
	created, err := s.statuses.GetByNames(ctx, names)
	if err != nil {
		return err
	}
	for _, st := range created {
		cache.statuses[st.Name()] = st
	}
	return nil
}

func (s *IngestionService) persistInteractions(
	ctx context.Context,
	records []*interaction.Record,
	cache *dimCache,
	tally *batchTally,
) error {
	facts := make([]*interaction.Fact, 0, len(records))
	affected := make(map[uint]struct{})

	for i, rec := range records {
		emp := cache.employees[rec.EmployeeName]
		ch := cache.channels[rec.ChannelName]
		st := cache.statuses[rec.StatusName]
		if emp == nil || ch == nil || st == nil {
			tally.addError(i+1, "Dimensão não encontrada após inserção.")
			continue
		}
		facts = append(facts, &interaction.Fact{
			ReferenceTS:   rec.ReferenceTS,
			Shift:         rec.Shift,
			Protocol:      rec.Protocol,
			Direction:     rec.Direction,
			WaitSeconds:   rec.WaitSeconds,
			HandleSeconds: rec.HandleSeconds,
			SolutionScore: rec.SolutionScore,
			ServiceScore:  rec.ServiceScore,
			EmployeeID:    emp.ID(),
			ChannelID:     ch.ID(),
			StatusID:      st.ID(),
		})
		affected[emp.ID()] = struct{}{}
		tally.imported++
	}

	for start := 0; start < len(facts); start += chunkSize {
		end := start + chunkSize
		if end > len(facts) {
			end = len(facts)
		}
		if err := s.interactions.BulkInsert(ctx, facts[start:end]); err != nil {
			return err
		}
	}
	return s.recomputeShifts(ctx, affected)
}

func (s *IngestionService) persistProductivity(
	ctx context.Context,
	records []*productivity.Record,
	voalleDate time.Time,
	cache *dimCache,
	tally *batchTally,
) error {
	existing, err := s.productivity.EmployeeIDsForDate(ctx, voalleDate)
	if err != nil {
		return err
	}

	facts := make([]*productivity.Fact, 0, len(records))
	seen := make(map[uint]struct{})
	for i, rec := range records {
		emp := cache.employees[rec.EmployeeName]
		if emp == nil {
			tally.addError(i+1, "Dimensão não encontrada após inserção.")
			continue
		}
		if _, dup := existing[emp.ID()]; dup {
			tally.duplicates++
			continue
		}
		if _, dup := seen[emp.ID()]; dup {
			tally.duplicates++
			continue
		}
		seen[emp.ID()] = struct{}{}
		facts = append(facts, &productivity.Fact{
			ReferenceDate:     rec.ReferenceDate,
			ClientsServed:     rec.ClientsServed,
			Interactions:      rec.Interactions,
			FinalizedRequests: rec.FinalizedRequests,
			EmployeeID:        emp.ID(),
		})
		tally.imported++
	}

	for start := 0; start < len(facts); start += chunkSize {
		end := start + chunkSize
		if end > len(facts) {
			end = len(facts)
		}
		if err := s.productivity.BulkInsert(ctx, facts[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// recomputeShifts re-derives the predominant band for every employee touched
// by the batch, counting all persisted facts, not only this file's.
func (s *IngestionService) recomputeShifts(ctx context.Context, affected map[uint]struct{}) error {
	if len(affected) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	counts, err := s.interactions.ShiftCounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		predominant, ok := shift.Predominant(counts[id])
		if !ok {
			continue
		}
		if err := s.employees.UpdateShift(ctx, id, predominant); err != nil {
			return err
		}
	}
	return nil
}

func (s *IngestionService) failUpload(ctx context.Context, record *upload.Upload, cause error) {
	text := cause.Error()
	if ve, ok := cause.(*ValidationError); ok {
		text = strings.Join(capStrings(ve.Errors, 3), "; ")
	}
	if len(text) > 500 {
		text = text[:500]
	}
	record.Finish(upload.StatusError, 0, 0, &text)
	// Best effort: the original error is what matters to the caller.
	_ = s.uploads.Update(ctx, record)
}

func buildResultMessage(st upload.Status, tally *batchTally) string {
	if st == upload.StatusDuplicate {
		return "Todos os registros desta planilha já existem no banco de dados. Nenhum dado novo foi importado."
	}
	if st == upload.StatusError && tally.imported == 0 {
		return "Não foi possível importar nenhum registro. Verifique a planilha."
	}

	var parts []string
	if tally.imported > 0 {
		parts = append(parts, fmt.Sprintf("%d registros importados com sucesso", tally.imported))
	}
	if tally.ignored > 0 {
		parts = append(parts, fmt.Sprintf("%d ignorados (outros setores)", tally.ignored))
	}
	if tally.duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicados ignorados", tally.duplicates))
	}
	if tally.errorCount > 0 {
		parts = append(parts, fmt.Sprintf("%d erros encontrados", tally.errorCount))
	}
	return strings.Join(parts, ". ") + "."
}

// sanitizeStorageError never leaks SQL, driver internals or hosts to the
// operator; the raw error stays in the logs.
func sanitizeStorageError(err error) string {
	msg := strings.ToLower(err.Error())

	for _, kw := range []string{
		"duplicate key", "unique constraint", "violates", "relation",
		"sqlstate", "copy from", "insert into",
	} {
		if strings.Contains(msg, kw) {
			return "Ocorreu um erro ao salvar os dados no banco. " +
				"É possível que alguns registros já existam. " +
				"Tente novamente ou entre em contato com o administrador."
		}
	}
	for _, kw := range []string{"connection", "timeout", "refused", "unreachable"} {
		if strings.Contains(msg, kw) {
			return "Erro de conexão com o banco de dados. Tente novamente em alguns instantes."
		}
	}
	return "Erro interno de processamento. Tente novamente ou entre em contato com o administrador."
}

func capStrings(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
