package constants

const (
	// Context keys
	ContextKeyRequestID = "request_id"
	ContextKeyUserID    = "user_id"
	ContextKeyTableID   = "table_id"

	// Collections
	CollectionPedidos          = "pedidos"
	CollectionPedidosComStatus = "pedidos_com_status"
	CollectionSLA              = "sla_tabela"
	CollectionEntradaGalpao    = "entrada_no_galpao"
	CollectionListaTelefones   = "lista_telefones"
	CollectionTelefonesHistory = "lista_telefones_delete_history"
	CollectionMotorista        = "motorista"
	CollectionBase             = "base"
	CollectionUsuarios         = "usuarios"

	// Column names
	ColumnJMS                = "Número de pedido JMS"
	ColumnTempoDigitalizacao = "Tempo de digitalização"
	ColumnMarcaAssinatura    = "Marca de assinatura"
	ColumnTipoBipagem        = "Tipo de bipagem"
	ColumnBaseEscaneamento   = "Base de escaneamento"
	ColumnDigitalizador      = "Digitalizador"
	ColumnHorarioSaida       = "horário de saída para entrega"
	ColumnCorreio            = "Correio de coleta ou entrega"
	ColumnBaseEntrega        = "base de entrega"
	ColumnResponsavel        = "responsável pela entrega"
	ColumnCidadeDestino      = "cidade destino"

	// Row values with meaning
	TipoBipagemAssinatura    = "assinatura de encomenda"
	TipoBipagemEntradaGalpao = "entrada no galpão de pacote não expedido"
	MarcaNaoEntregue         = "Não entregue"
	DefaultBase              = "(sem base)"
	DefaultMotorista         = "(sem motorista)"

	// Import limits
	InsertBatchSize    = 5000
	TelefonesBatchSize = 1000
	MaxCellLength      = 50000
	DefaultMaxUploadMB = 50

	// Pagination
	DefaultPage    = 1
	DefaultPerPage = 100
	MaxPerPage     = 500

	// Tables
	MinTableID = 1
	MaxTableID = 20

	// Error messages
	ErrInvalidRequest       = "Dados da requisição inválidos."
	ErrFileMissing          = "Arquivo não informado."
	ErrFileNotXLSX          = "Envie um arquivo .xlsx"
	ErrEmptyWorkbook        = "O arquivo está vazio ou não tem dados na primeira planilha."
	ErrReadWorkbook         = "Erro ao ler o Excel: %v"
	ErrMissingExcelColumn   = "O ficheiro Excel deve conter a coluna \"%s\"."
	ErrMissingFileColumn    = "Coluna '%s' não encontrada no arquivo."
	ErrBatchInsert          = "Erro ao gravar na linha (aprox.) %d: %s"
	ErrBulkWrite            = "Erro ao gravar em lote: %s"
	ErrFileTooLarge         = "Ficheiro demasiado grande. Limite: %d MB."
	ErrInvalidID            = "ID inválido."
	ErrRecordNotFound       = "Registro não encontrado."
	ErrUserNotFound         = "Usuário não encontrado."
	ErrWrongPassword        = "Senha incorreta."
	ErrBadCredentials       = "Nome ou senha incorretos."
	ErrUserExists           = "Já existe um usuário com este nome."
	ErrTokenMissing         = "Token de autenticação ausente."
	ErrTokenInvalid         = "Token inválido ou expirado."
	ErrTableIDRequired      = "Header X-Table-Id é obrigatório (número entre 1 e 20)."
	ErrTableIDNotNumber     = "table_id deve ser um número entre 1 e 20"
	ErrTableIDOutOfRange    = "table_id deve ser entre 1 e 20"
	ErrRateLimited          = "Muitas requisições. Tente novamente em instantes."
	ErrInternalServer       = "Erro interno do servidor."
	ErrMotoristaBaseMissing = "Parâmetros motorista e base são obrigatórios."
	ErrInvalidConfig        = "Configuração inválida: %s"
	ErrDatabase             = "Erro ao acessar o banco de dados."
	ErrDatabaseWrite        = "Erro ao gravar no banco de dados."
	ErrInvalidRowID         = "ID do registro inválido."
	ErrPhoneHeaderMissing   = "Cabeçalho da lista de telefones não encontrado."
	ErrContactColumnMissing = "Coluna Contato não encontrada no cabeçalho."
	ErrInvalidColIndex      = "col_index inválido."

	// Response messages
	MsgNoJMSSent           = "Nenhum número JMS enviado."
	MsgPedidosEmpty        = "Coleção pedidos vazia."
	MsgPedidosNoJMSColumn  = "Coleção pedidos sem coluna '%s'."
	MsgSavedCount          = "%d gravado(s)."
	MsgAlreadyExisted      = "%d já existiam (não duplicados)."
	MsgNotSentPrefix       = "%d não enviados (não atendem critério Digitalizador + Correio com prefixo)."
	MsgAutoSendDisabled    = "Envio automático está desativado. Ative em Perfil > Configurações («Enviar automaticamente para motorista após importar planilha»)."
	MsgAutoSendNoPrefixes  = "Configure em Perfil > Configurações os prefixos do Correio de coleta ou entrega (ex.: TAC MEI, ETC)."
	MsgAutoSendNoStatus    = "Sem dados em pedidos consultados."
	MsgAutoSendNoJMSColumn = "Coluna 'Número de pedido JMS' não encontrada em pedidos consultados."
	MsgNoDriverCandidates  = "Nenhum pedido com Digitalizador e Correio (prefixos configurados) encontrado nos dados atuais."
	MsgAutoSavedCount      = "%d gravado(s) automaticamente."
	MsgAutoAlreadyExisted  = "%d já existiam."
	MsgAutoRejected        = "%d rejeitados (não atendem critério)."
	MsgAutoNotRecorded     = "%d atendiam o critério mas não foram gravados (verifique se já existem na lista do motorista)."
	MsgAutoSendDone        = "Envio automático concluído."
	MsgMissingSheetColumn  = "O arquivo deve ter a coluna \"%s\"."

	// Cache keys
	CacheKeyImportDates = "datas:%s:%s"
	CacheKeyHeader      = "header:%s:%s"
	CacheKeyRateLimit   = "ratelimit:%s:%s"

	// Cache TTLs (in seconds)
	CacheTTLImportDates = 300  // 5 minutes
	CacheTTLHeader      = 3600 // 1 hour

	// API Endpoints
	EndpointHealth = "/health"
)
