// Caminho: internal/services/notify/service.go
// Resumo: Monta o payload de notificação de convite para novos administradores:
// mensagem templada + deep link de contato (wa.me). A entrega em si fica fora do
// serviço; o payload volta na resposta de criação e nunca é persistido.

package notifysvc

import (
	"bytes"
	"net/url"
	"strings"
	"text/template"
)

// inviteTemplate é o texto do convite enviado ao novo administrador.
var inviteTemplate = template.Must(template.New("invite").Parse(
	`Olá {{.Username}}! Você foi convidado(a) por {{.InvitedBy}} para administrar o {{.ServiceName}}.
Usuário: {{.Username}}
Senha: {{.Password}}{{if .PanelURL}}
Painel: {{.PanelURL}}{{end}}
Guarde a senha: ela não será exibida novamente.`))

// Service contém os metadados usados na composição do convite.
type Service struct {
	ServiceName   string
	PublicBaseURL string
}

// New cria o serviço de notificações.
func New(serviceName, publicBaseURL string) *Service {
	return &Service{ServiceName: serviceName, PublicBaseURL: publicBaseURL}
}

// Invite é o payload retornado ao chamador na criação de um administrador.
type Invite struct {
	Phone        string `json:"phone"`
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsappLink"`
}

// AdminInvite compõe a mensagem de convite e o deep link wa.me para o telefone
// informado. A senha aparece aqui exatamente uma vez.
func (s *Service) AdminInvite(username, password, phone, invitedBy string) Invite {
	data := map[string]string{
		"Username":    username,
		"Password":    password,
		"InvitedBy":   invitedBy,
		"ServiceName": s.ServiceName,
		"PanelURL":    strings.TrimRight(s.PublicBaseURL, "/"),
	}
	var buf bytes.Buffer
	_ = inviteTemplate.Execute(&buf, data)
	msg := buf.String()

	return Invite{
		Phone:        phone,
		Message:      msg,
		WhatsAppLink: "https://wa.me/" + digitsOnly(phone) + "?text=" + url.QueryEscape(msg),
	}
}

// digitsOnly remove tudo que não for dígito do telefone (formato exigido pelo wa.me).
func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
